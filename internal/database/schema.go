package database

var schema = []string{`
CREATE TABLE IF NOT EXISTS accounts (
    id BIGINT AUTO_INCREMENT PRIMARY KEY,
    telegram_id BIGINT NOT NULL UNIQUE,
    username VARCHAR(255),
    first_name VARCHAR(255),
    last_name VARCHAR(255),
    balance DECIMAL(12,2) NOT NULL DEFAULT 0,
    is_admin TINYINT(1) NOT NULL DEFAULT 0,
    last_ad_watch_at TIMESTAMP NULL,
    last_free_trial_at TIMESTAMP NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    last_active_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
);`, `
CREATE TABLE IF NOT EXISTS orders (
    id BIGINT AUTO_INCREMENT PRIMARY KEY,
    account_id BIGINT NOT NULL,
    category VARCHAR(16) NOT NULL,
    prompt TEXT,
    result TEXT,
    cost DECIMAL(12,2) NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    INDEX idx_orders_account_created (account_id, created_at),
    FOREIGN KEY (account_id) REFERENCES accounts(id)
);`, `
CREATE TABLE IF NOT EXISTS reward_events (
    id BIGINT AUTO_INCREMENT PRIMARY KEY,
    account_id BIGINT NOT NULL,
    amount DECIMAL(12,2) NOT NULL,
    currency VARCHAR(8) NOT NULL DEFAULT 'RUB',
    status VARCHAR(16) NOT NULL,
    method VARCHAR(32) NOT NULL,
    comment TEXT,
    dedupe_key VARCHAR(64) NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    completed_at TIMESTAMP NULL,
    UNIQUE KEY uq_reward_account_dedupe (account_id, dedupe_key),
    INDEX idx_reward_account_method_created (account_id, method, created_at),
    INDEX idx_reward_status_created (status, created_at),
    FOREIGN KEY (account_id) REFERENCES accounts(id)
);`}
