package ingest

// ErrorLogTable receives rejected rows when Scheduler.LogErrors is set.
const ErrorLogTable = "_addresspack_errors"

const createErrorLogSQL = `CREATE TABLE IF NOT EXISTS ` + ErrorLogTable + ` (
	timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
	message TEXT,
	file TEXT,
	line INTEGER,
	row_data TEXT
)`

const insertErrorLogSQL = `INSERT INTO ` + ErrorLogTable + ` (message, file, line, row_data) VALUES (?, ?, ?, ?)`
