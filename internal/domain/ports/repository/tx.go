package repository

// Tx is an opaque transaction handle threaded through repository methods.
// The concrete type is infra-defined (pgx.Tx for Postgres); nil selects the
// non-transactional path. All current mutations are single conditional
// statements, so callers pass nil everywhere today.
type Tx interface{}
