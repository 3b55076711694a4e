package db

import (
	"errors"

	mysql "github.com/go-sql-driver/mysql"
)

// IsDuplicateKey reports a unique-key violation (ER_DUP_ENTRY).
func IsDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return false
}

// IsFKViolation reports a foreign-key constraint failure (ER_NO_REFERENCED_ROW_2).
func IsFKViolation(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1452
	}
	return false
}
