// Package repository contains the MySQL data access layer.  This file
// defines the sentinel errors shared by all repositories and the mapping
// from driver errors onto them.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrConflict is returned when a write violates a unique index.  For
// bookings and schedules this is the authoritative double-booking signal:
// the unique indexes over confirmed_slot/active_slot reject the second
// claim even when two requests pass the application pre-check at the same
// time.
var ErrConflict = errors.New("conflict")

var (
	ErrBookingNotFound  = errors.New("booking not found")
	ErrScreenNotFound   = errors.New("screen not found")
	ErrTimeSlotNotFound = errors.New("time slot not found")
	ErrUserNotFound     = errors.New("user not found")
)

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// IsDuplicateKey reports whether err is a MySQL unique-constraint violation.
func IsDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// mapWriteErr converts a duplicate-key failure into ErrConflict and leaves
// every other error untouched.
func mapWriteErr(err error) error {
	if IsDuplicateKey(err) {
		return ErrConflict
	}
	return err
}
