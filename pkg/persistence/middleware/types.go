package middleware

import "github.com/aretw0/espalier/pkg/ports"

// Middleware allows wrapping an IntentStore to add behavior.
type Middleware func(ports.IntentStore) ports.IntentStore
