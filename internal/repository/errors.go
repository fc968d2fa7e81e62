// Package repository contains raw-SQL data access for the attendance
// network.  Sentinel errors defined here let handlers distinguish
// resolution failures (404) from state conflicts (409) without
// inspecting SQL errors directly.
package repository

import "errors"

// ErrQueueNotFound indicates that a queue id did not resolve.
var ErrQueueNotFound = errors.New("queue not found")

// ErrSectorNotFound indicates that a sector id did not resolve.
var ErrSectorNotFound = errors.New("sector not found")

// ErrCustomerNotFound indicates that a customer id did not resolve.
var ErrCustomerNotFound = errors.New("customer not found")

// ErrOperatorNotFound indicates that an operator id did not resolve or
// that the operator has been deactivated.
var ErrOperatorNotFound = errors.New("operator not found")

// ErrTicketNotFound indicates that a ticket id did not resolve.
var ErrTicketNotFound = errors.New("ticket not found")

// ErrQueueNameTaken is returned when creating a queue whose name is
// already used inside the same unit.  Names are unique per unit only.
var ErrQueueNameTaken = errors.New("queue name already in use for this unit")

// ErrQueueHasWaiting is returned when deactivating a queue that still
// has WAITING tickets.  Handlers should translate this into a 409.
var ErrQueueHasWaiting = errors.New("queue still has waiting tickets")

// ErrEmailExists is returned when creating an operator with an email
// that is already registered.
var ErrEmailExists = errors.New("email already exists")
