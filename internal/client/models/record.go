package models

import "time"

// RecordVersion tags the current encrypted-record layout.
const RecordVersion = 1

// EncryptedRecord is the at-rest form of one conversation. One record
// per conversation, overwritten (not appended) on every save.
//
// A record with empty IV and Salt is a legacy unencrypted record: its
// payload is the plaintext conversation JSON. Legacy records are passed
// through on load but never written.
type EncryptedRecord struct {
	ID        string
	CreatedAt time.Time
	Payload   string // base64 ciphertext (or plaintext JSON for legacy records)
	IV        string // base64, 12 bytes
	Salt      string // base64, 16 bytes
	Version   int
}

// Legacy reports whether the record predates encrypted storage.
func (r *EncryptedRecord) Legacy() bool {
	return r.IV == "" && r.Salt == ""
}
