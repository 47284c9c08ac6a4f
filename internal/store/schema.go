package store

// postgresSchema and sqliteSchema create the same two tables. last_updated is
// kept as an RFC 3339 string in both.
const postgresSchema = `
CREATE TABLE IF NOT EXISTS jobs (
	jobid             BIGINT PRIMARY KEY,
	companyid         BIGINT NOT NULL,
	jobposition       TEXT   NOT NULL,
	jobdescription    TEXT   NOT NULL DEFAULT '',
	jobqualifications TEXT   NOT NULL DEFAULT '',
	jobexperience     TEXT   NOT NULL DEFAULT '',
	jobpattern        TEXT   NOT NULL DEFAULT '',
	jobsalary         TEXT   NOT NULL DEFAULT '',
	jobniche          TEXT   NOT NULL DEFAULT '',
	jobcountry        TEXT   NOT NULL DEFAULT '',
	jobaddress        TEXT   NOT NULL DEFAULT '',
	jobstatus         TEXT   NOT NULL DEFAULT 'scraped',
	scrapedsource     TEXT   NOT NULL,
	editpin           TEXT   NOT NULL DEFAULT 'end',
	jobscraper        TEXT   NOT NULL DEFAULT '',
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS scraper_status (
	id           BIGSERIAL PRIMARY KEY,
	platform     TEXT    NOT NULL UNIQUE,
	total        INTEGER NOT NULL DEFAULT 0,
	"current"    INTEGER NOT NULL DEFAULT 0,
	successful   INTEGER NOT NULL DEFAULT 0,
	failed       INTEGER NOT NULL DEFAULT 0,
	status       TEXT    NOT NULL,
	last_updated TEXT    NOT NULL,
	process_id   INTEGER NOT NULL DEFAULT 0
);
`

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS jobs (
	jobid             INTEGER PRIMARY KEY,
	companyid         INTEGER NOT NULL,
	jobposition       TEXT    NOT NULL,
	jobdescription    TEXT    NOT NULL DEFAULT '',
	jobqualifications TEXT    NOT NULL DEFAULT '',
	jobexperience     TEXT    NOT NULL DEFAULT '',
	jobpattern        TEXT    NOT NULL DEFAULT '',
	jobsalary         TEXT    NOT NULL DEFAULT '',
	jobniche          TEXT    NOT NULL DEFAULT '',
	jobcountry        TEXT    NOT NULL DEFAULT '',
	jobaddress        TEXT    NOT NULL DEFAULT '',
	jobstatus         TEXT    NOT NULL DEFAULT 'scraped',
	scrapedsource     TEXT    NOT NULL,
	editpin           TEXT    NOT NULL DEFAULT 'end',
	jobscraper        TEXT    NOT NULL DEFAULT '',
	created_at        TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS scraper_status (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	platform     TEXT    NOT NULL UNIQUE,
	total        INTEGER NOT NULL DEFAULT 0,
	"current"    INTEGER NOT NULL DEFAULT 0,
	successful   INTEGER NOT NULL DEFAULT 0,
	failed       INTEGER NOT NULL DEFAULT 0,
	status       TEXT    NOT NULL,
	last_updated TEXT    NOT NULL,
	process_id   INTEGER NOT NULL DEFAULT 0
);
`

const (
	jobColumns = `jobid, companyid, jobposition, jobdescription, jobqualifications,
	jobexperience, jobpattern, jobsalary, jobniche, jobcountry, jobaddress,
	jobstatus, scrapedsource, editpin, jobscraper`

	progressColumns = `id, platform, total, "current", successful, failed, status, last_updated, process_id`
)
