package db

// Each parsed message is stored whole: headers, decoded bodies and attachment
// payloads, so viewing never has to go back to the .eml file.
const schema = `
CREATE TABLE IF NOT EXISTS emails (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    file_path TEXT UNIQUE NOT NULL,
    message_id TEXT,
    subject TEXT,
    from_address TEXT NOT NULL DEFAULT '',
    from_name TEXT,
    to_address TEXT,
    to_name TEXT,
    reply_to_address TEXT,
    reply_to_name TEXT,
    cc TEXT,                 -- "Name <address>" entries joined with ", "
    date DATETIME,           -- NULL when the Date header is missing or unparsable
    delivery_date DATETIME,
    body_text TEXT,
    body_html TEXT,
    raw_headers TEXT,
    attachment_count INTEGER DEFAULT 0,
    file_size INTEGER,
    indexed_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Full-text search virtual table
CREATE VIRTUAL TABLE IF NOT EXISTS emails_fts USING fts5(
    subject,
    from_address,
    from_name,
    to_address,
    to_name,
    cc,
    body_text,
    content='emails',
    content_rowid='id'
);

-- Triggers to keep FTS in sync
CREATE TRIGGER IF NOT EXISTS emails_ai AFTER INSERT ON emails BEGIN
    INSERT INTO emails_fts(rowid, subject, from_address, from_name, to_address, to_name, cc, body_text)
    VALUES (new.id, new.subject, new.from_address, new.from_name, new.to_address, new.to_name, new.cc, new.body_text);
END;

CREATE TRIGGER IF NOT EXISTS emails_ad AFTER DELETE ON emails BEGIN
    INSERT INTO emails_fts(emails_fts, rowid, subject, from_address, from_name, to_address, to_name, cc, body_text)
    VALUES ('delete', old.id, old.subject, old.from_address, old.from_name, old.to_address, old.to_name, old.cc, old.body_text);
END;

CREATE TRIGGER IF NOT EXISTS emails_au AFTER UPDATE ON emails BEGIN
    INSERT INTO emails_fts(emails_fts, rowid, subject, from_address, from_name, to_address, to_name, cc, body_text)
    VALUES ('delete', old.id, old.subject, old.from_address, old.from_name, old.to_address, old.to_name, old.cc, old.body_text);
    INSERT INTO emails_fts(rowid, subject, from_address, from_name, to_address, to_name, cc, body_text)
    VALUES (new.id, new.subject, new.from_address, new.from_name, new.to_address, new.to_name, new.cc, new.body_text);
END;

-- Regular attachments with their base64 payload
CREATE TABLE IF NOT EXISTS attachments (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    email_id INTEGER NOT NULL,
    name TEXT NOT NULL DEFAULT '',
    content_type TEXT,
    content_id TEXT,
    disposition TEXT NOT NULL DEFAULT 'regular',
    size INTEGER,
    content_base64 TEXT NOT NULL DEFAULT '',
    FOREIGN KEY(email_id) REFERENCES emails(id) ON DELETE CASCADE
);

-- Settings table (for storing email folder path, preferences)
CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Indexes for performance
CREATE INDEX IF NOT EXISTS idx_emails_date ON emails(date DESC);
CREATE INDEX IF NOT EXISTS idx_emails_from_address ON emails(from_address);
CREATE INDEX IF NOT EXISTS idx_emails_message_id ON emails(message_id);
CREATE INDEX IF NOT EXISTS idx_attachments_email_id ON attachments(email_id);
`
