// Package sensor provides the sensor and reading registry for the hub.
//
// # Architecture
//
//	┌──────────────────────────────────────────────────────────────┐
//	│                         Registry                             │
//	│  raw map[string]any ──▶ Validate* ──▶ Store ──▶ EventSinks   │
//	└──────────────────────────────────────────────────────────────┘
//	          │                              │
//	          ▼                              ▼
//	┌────────────────────┐        ┌──────────────────────────────┐
//	│ Query engine       │        │ Store                        │
//	│ ValidateListQuery  │        │ • ordered sensors + readings │
//	│ FilterReadings     │◀───────│ • one RWMutex                │
//	│ Paginate           │Snapshot│ • max+1 id allocation        │
//	└────────────────────┘        └──────────────────────────────┘
//
// Failures are *fault.Error values: Validation for rejected input and
// NotFound for a missing sensor. Validation reports only the first
// violated rule.
//
// # Usage
//
//	store := sensor.NewStore(sensor.StoreOptions{})
//	reg := sensor.NewRegistry(store)
//	sn, err := reg.CreateSensor(map[string]any{
//	    "location": "greenhouse", "type": "humidity", "status": "active",
//	})
//	page, err := reg.ListReadings(url.Values{"type": {"humidity"}, "limit": {"5"}})
package sensor
