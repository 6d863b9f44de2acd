package warehouse

// Schema returns the star-schema DDL, one statement per table, in dependency
// order. The statements stick to the SQL subset MySQL and Postgres share;
// foreign keys are declared as table constraints so MySQL enforces them too.
func Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS dim_customers (
			customer_key BIGINT PRIMARY KEY,
			customer_id VARCHAR(64) NOT NULL UNIQUE,
			first_seen_date DATE NOT NULL,
			total_orders INT NOT NULL,
			total_spent DECIMAL(12, 2) NOT NULL,
			customer_segment VARCHAR(32) NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS dim_products (
			product_key BIGINT PRIMARY KEY,
			product_id VARCHAR(64) NOT NULL UNIQUE,
			product_name VARCHAR(255) NOT NULL,
			category VARCHAR(64) NOT NULL,
			avg_rating DECIMAL(3, 2),
			total_reviews INT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS dim_dates (
			date_key BIGINT PRIMARY KEY,
			full_date DATE NOT NULL UNIQUE,
			year INT NOT NULL,
			quarter INT NOT NULL,
			month INT NOT NULL,
			week INT NOT NULL,
			day INT NOT NULL,
			is_weekend BOOLEAN NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS dim_devices (
			device_key BIGINT PRIMARY KEY,
			device_type VARCHAR(32) NOT NULL,
			browser VARCHAR(32) NOT NULL,
			CONSTRAINT uq_device_pair UNIQUE (device_type, browser)
		);`,
		`CREATE TABLE IF NOT EXISTS fact_orders (
			order_key BIGINT PRIMARY KEY,
			order_id VARCHAR(64) NOT NULL UNIQUE,
			customer_key BIGINT NOT NULL,
			date_key BIGINT NOT NULL,
			total_amount DECIMAL(12, 2) NOT NULL,
			items_count INT NOT NULL,
			payment_method VARCHAR(32) NOT NULL,
			CONSTRAINT fk_orders_customer FOREIGN KEY (customer_key) REFERENCES dim_customers (customer_key),
			CONSTRAINT fk_orders_date FOREIGN KEY (date_key) REFERENCES dim_dates (date_key)
		);`,
		`CREATE TABLE IF NOT EXISTS fact_page_views (
			page_view_key BIGINT PRIMARY KEY,
			event_id VARCHAR(64) NOT NULL UNIQUE,
			customer_key BIGINT NOT NULL,
			device_key BIGINT NOT NULL,
			date_key BIGINT NOT NULL,
			page_url VARCHAR(512) NOT NULL,
			session_id VARCHAR(64) NOT NULL,
			CONSTRAINT fk_page_views_customer FOREIGN KEY (customer_key) REFERENCES dim_customers (customer_key),
			CONSTRAINT fk_page_views_device FOREIGN KEY (device_key) REFERENCES dim_devices (device_key),
			CONSTRAINT fk_page_views_date FOREIGN KEY (date_key) REFERENCES dim_dates (date_key)
		);`,
	}
}
