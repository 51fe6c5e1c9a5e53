package repository

// OrderConsumptionIndex allows one consume movement per (item, order)
const OrderConsumptionIndex = "stock_movements_order_consume_key"

// Schema is the idempotent DDL for the inventory tables, applied with
// database.DB.Migrate when database.auto_migrate is enabled.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS inventory_items (
		id               UUID PRIMARY KEY,
		sku              VARCHAR(64)   NOT NULL,
		name             VARCHAR(255)  NOT NULL,
		description      TEXT          NOT NULL DEFAULT '',
		category         VARCHAR(100)  NOT NULL,
		unit             VARCHAR(32)   NOT NULL DEFAULT 'unit',
		current_stock    NUMERIC(14,3) NOT NULL DEFAULT 0,
		min_stock        NUMERIC(14,3) NOT NULL DEFAULT 0,
		critical_stock   NUMERIC(14,3) NOT NULL DEFAULT 0,
		reorder_quantity NUMERIC(14,3) NOT NULL DEFAULT 0,
		cost             NUMERIC(14,4) NOT NULL DEFAULT 0,
		selling_price    NUMERIC(14,2) NOT NULL DEFAULT 0,
		expiry_date      TIMESTAMPTZ,
		is_active        BOOLEAN       NOT NULL DEFAULT TRUE,
		version          BIGINT        NOT NULL DEFAULT 1,
		created_at       TIMESTAMPTZ   NOT NULL DEFAULT NOW(),
		updated_at       TIMESTAMPTZ   NOT NULL DEFAULT NOW(),
		CONSTRAINT inventory_items_sku_key UNIQUE (sku),
		CONSTRAINT inventory_items_current_stock_check CHECK (current_stock >= 0),
		CONSTRAINT inventory_items_min_stock_check CHECK (min_stock >= 0 AND critical_stock >= 0 AND reorder_quantity >= 0),
		CONSTRAINT inventory_items_prices_check CHECK (cost >= 0 AND selling_price >= 0)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_inventory_items_category ON inventory_items (category)`,
	`CREATE TABLE IF NOT EXISTS stock_movements (
		seq            BIGSERIAL,
		id             UUID PRIMARY KEY,
		item_id        UUID          NOT NULL REFERENCES inventory_items(id),
		movement_type  VARCHAR(16)   NOT NULL CHECK (movement_type IN ('add', 'consume', 'update')),
		quantity       NUMERIC(14,3) NOT NULL,
		previous_stock NUMERIC(14,3) NOT NULL,
		new_stock      NUMERIC(14,3) NOT NULL,
		reason         TEXT          NOT NULL,
		employee_id    VARCHAR(64),
		order_id       VARCHAR(64),
		cost           NUMERIC(14,4),
		batch_number   VARCHAR(64),
		created_at     TIMESTAMPTZ   NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_stock_movements_item ON stock_movements (item_id, created_at DESC, seq DESC)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ` + OrderConsumptionIndex + ` ON stock_movements (item_id, order_id)
		WHERE movement_type = 'consume' AND order_id IS NOT NULL`,
	`CREATE TABLE IF NOT EXISTS alert_acknowledgements (
		alert_id        UUID PRIMARY KEY,
		item_id         UUID        NOT NULL REFERENCES inventory_items(id),
		alert_type      VARCHAR(32) NOT NULL,
		fingerprint     TEXT        NOT NULL,
		acknowledged_by VARCHAR(64) NOT NULL,
		acknowledged_at TIMESTAMPTZ NOT NULL
	)`,
}

// Tables lists the inventory tables in dependency order, for test cleanup
var Tables = []string{"alert_acknowledgements", "stock_movements", "inventory_items"}
