package repository

const schema = `
CREATE TABLE IF NOT EXISTS labs (
	id         UUID PRIMARY KEY,
	name       TEXT NOT NULL,
	use_case   TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS tasks (
	id         UUID PRIMARY KEY,
	lab_id     UUID REFERENCES labs(id),
	name       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS projects (
	id          UUID PRIMARY KEY,
	lab_id      UUID NOT NULL REFERENCES labs(id),
	name        TEXT NOT NULL,
	robot_type  TEXT,
	description TEXT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS workers (
	id         UUID PRIMARY KEY,
	email      TEXT NOT NULL,
	name       TEXT NOT NULL,
	country    TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS episodes (
	id               UUID PRIMARY KEY,
	task_id          UUID NOT NULL,
	lab_id           UUID,
	uploader_user_id UUID,
	storage_path     TEXT NOT NULL,
	video_path       TEXT,
	success          BOOLEAN NOT NULL,
	failure_reason   TEXT,
	failure_time_sec DOUBLE PRECISION,
	hz               INTEGER NOT NULL,
	steps            INTEGER NOT NULL,
	duration_sec     DOUBLE PRECISION NOT NULL,
	edge_case        BOOLEAN NOT NULL DEFAULT FALSE,
	quality_score    INTEGER NOT NULL DEFAULT 0,
	accepted         BOOLEAN NOT NULL DEFAULT FALSE,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_episodes_task ON episodes(task_id, accepted);
CREATE INDEX IF NOT EXISTS idx_episodes_lab ON episodes(lab_id);

CREATE TABLE IF NOT EXISTS jobs (
	id                   UUID PRIMARY KEY,
	task_id              UUID NOT NULL,
	lab_id               UUID,
	episode_id           UUID NOT NULL UNIQUE REFERENCES episodes(id),
	status               TEXT NOT NULL DEFAULT 'open',
	claimed_by_worker_id UUID,
	fix_episode_id       UUID REFERENCES episodes(id),
	created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_jobs_task_status ON jobs(task_id, status);

CREATE TABLE IF NOT EXISTS job_events (
	id          BIGSERIAL PRIMARY KEY,
	job_id      UUID NOT NULL REFERENCES jobs(id),
	at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	from_status TEXT,
	to_status   TEXT NOT NULL,
	reason      TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS waitlist (
	id         UUID PRIMARY KEY,
	email      TEXT NOT NULL UNIQUE,
	name       TEXT,
	role       TEXT NOT NULL,
	note       TEXT,
	email_sent BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS lab_requests (
	id                UUID PRIMARY KEY,
	name              TEXT NOT NULL,
	email             TEXT NOT NULL,
	org               TEXT NOT NULL,
	use_case          TEXT NOT NULL,
	confirmation_sent BOOLEAN NOT NULL DEFAULT FALSE,
	admin_notified    BOOLEAN NOT NULL DEFAULT FALSE,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
