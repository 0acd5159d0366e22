package indexer

const schema = `
CREATE TABLE IF NOT EXISTS oracle_requests (
	address         TEXT PRIMARY KEY,
	requester       TEXT NOT NULL,
	oracle          TEXT NOT NULL,
	data_type       TEXT NOT NULL,
	quantity        NUMERIC(20, 0) NOT NULL,
	status          TEXT NOT NULL,
	created_at      BIGINT NOT NULL,
	payment_amount  NUMERIC(20, 0) NOT NULL DEFAULT 0,
	settled_at      BIGINT,
	nonce           NUMERIC(20, 0) NOT NULL,
	reason          TEXT NOT NULL DEFAULT '',
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS oracle_requests_requester_idx ON oracle_requests (requester);
CREATE INDEX IF NOT EXISTS oracle_requests_status_idx ON oracle_requests (status);

CREATE TABLE IF NOT EXISTS oracle_txs (
	hash        TEXT PRIMARY KEY,
	height      BIGINT NOT NULL,
	block_time  TIMESTAMPTZ NOT NULL,
	type        TEXT NOT NULL,
	signer      TEXT NOT NULL,
	code        INTEGER NOT NULL,
	log         TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS oracle_txs_signer_idx ON oracle_txs (signer);
`
