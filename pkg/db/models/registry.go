package models

// All returns every model in migration-safe order, used by the sqlite mock
// server to auto-migrate its schema on boot.
func All() []any {
	return []any{
		&User{},
		&Client{},
		&Project{},
		&ProjectTask{},
		&Contractor{},
		&Employee{},
		&WarehouseItem{},
		&WarehouseMovement{},
		&Estimate{},
		&EstimateItem{},
		&AuditLog{},
	}
}
