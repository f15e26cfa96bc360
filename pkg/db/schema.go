package db

const schema = `
-- Performance and reliability settings
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA temp_store = MEMORY;

-- Image sizes: dimensions read from image headers, keyed by absolute URL.
-- A failed probe is stored with width = height = 0 and the error text so
-- the same broken URL is not fetched again until the entry expires.
CREATE TABLE IF NOT EXISTS image_sizes (
    url TEXT PRIMARY KEY,
    width INTEGER NOT NULL DEFAULT 0,
    height INTEGER NOT NULL DEFAULT 0,
    probe_error TEXT,
    probed_at INTEGER NOT NULL   -- unix seconds
);

CREATE INDEX IF NOT EXISTS idx_image_sizes_probed ON image_sizes(probed_at);
`
