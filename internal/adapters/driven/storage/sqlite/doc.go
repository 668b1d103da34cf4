// Package sqlite records chat transcripts in a local SQLite database.
//
// It uses modernc.org/sqlite, so no C toolchain is needed. The schema lives
// in migrations/*.sql, embedded into the binary and applied in order on open;
// the applied version is kept in schema_migrations.
//
// The database defaults to ~/.pdfchat/data/transcripts.db and is opened in
// WAL mode, so `pdfchat history` can read while a chat session is writing.
package sqlite
