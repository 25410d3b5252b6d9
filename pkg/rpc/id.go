package rpc

import "github.com/google/uuid"

func newRelationshipID() string { return uuid.NewString() }
