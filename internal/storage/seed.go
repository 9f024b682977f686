package storage

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/smartfactory/smartfactory/internal/types"
)

// SeedIfEmpty loads the default factory layout when no areas exist.
// It reports whether anything was written.
func SeedIfEmpty(db *gorm.DB) (bool, error) {
	var areas int64
	if err := db.Model(&types.Area{}).Count(&areas).Error; err != nil {
		return false, fmt.Errorf("counting areas: %w", err)
	}
	if areas > 0 {
		return false, nil
	}
	return true, Seed(db)
}

// Seed writes the default layout: material flows from the warehouse through
// feeding, production and filling into finished goods, with cleaning feeding filling.
func Seed(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(defaultAreas()).Error; err != nil {
			return fmt.Errorf("seeding areas: %w", err)
		}
		if err := tx.Create(defaultDevices()).Error; err != nil {
			return fmt.Errorf("seeding devices: %w", err)
		}
		if err := tx.Create(defaultConnections()).Error; err != nil {
			return fmt.Errorf("seeding connections: %w", err)
		}
		if err := tx.Create(defaultAlerts(time.Now())).Error; err != nil {
			return fmt.Errorf("seeding alerts: %w", err)
		}
		return nil
	})
}

func defaultAreas() []types.Area {
	area := func(id, name, typ string, x, y, w, h float64, devices int) types.Area {
		return types.Area{
			ID: id, Name: name, Type: typ,
			GridX: x, GridY: y, GridWidth: w, GridHeight: h,
			Status: types.AreaNormal, DeviceCount: devices,
		}
	}
	return []types.Area{
		area("warehouse", "Warehouse", "storage", 3, 20, 8, 6, 2),
		area("feeding", "Feeding", "production", 14, 20, 8, 6, 2),
		area("production", "Production", "production", 25, 20, 10, 6, 3),
		area("cleaning", "Cleaning", "cleaning", 25, 10, 8, 6, 2),
		area("filling", "Filling", "production", 38, 15, 9, 8, 3),
		area("finished_goods", "Finished Goods", "storage", 50, 15, 8, 8, 2),
	}
}

func defaultDevices() []types.Device {
	dev := func(id, areaID, name, typ, status string, x, y float64, eff int, temp float64) types.Device {
		return types.Device{
			ID: id, AreaID: areaID, Name: name, Type: typ, Status: status,
			GridX: x, GridY: y, Efficiency: eff, Temperature: temp,
		}
	}
	return []types.Device{
		dev("forklift1", "warehouse", "Forklift 1", "forklift", types.DeviceIdle, 5, 22, 85, 25),
		dev("shelf1", "warehouse", "Shelf A", "shelf", types.DeviceIdle, 8, 23, 100, 22),
		dev("feeder1", "feeding", "Auto Feeder 1", "feeder", types.DeviceRunning, 16, 22, 92, 35),
		dev("conveyor1", "feeding", "Conveyor 1", "conveyor", types.DeviceRunning, 19, 22, 95, 32),
		dev("reactor1", "production", "Reactor 1", "reactor", types.DeviceRunning, 28, 22, 88, 65),
		dev("mixer1", "production", "Mixer 1", "mixer", types.DeviceRunning, 31, 22, 90, 45),
		dev("pump1", "production", "Material Pump 1", "pump", types.DeviceRunning, 29, 24, 93, 38),
		dev("washer1", "cleaning", "Washer 1", "washer", types.DeviceRunning, 27, 12, 87, 55),
		dev("dryer1", "cleaning", "Dryer 1", "dryer", types.DeviceIdle, 30, 12, 80, 48),
		dev("filler1", "filling", "Filler 1", "filler", types.DeviceRunning, 40, 18, 94, 42),
		dev("capper1", "filling", "Capper 1", "capper", types.DeviceRunning, 43, 18, 96, 35),
		dev("labeler1", "filling", "Labeler 1", "labeler", types.DeviceRunning, 41, 20, 91, 33),
		dev("forklift2", "finished_goods", "Forklift 2", "forklift", types.DeviceIdle, 52, 18, 82, 26),
		dev("shelf2", "finished_goods", "Finished Goods Shelf", "shelf", types.DeviceIdle, 55, 18, 100, 23),
	}
}

func defaultConnections() []types.Connection {
	conn := func(from, to, typ, compType, compStatus, compName, compID string) types.Connection {
		return types.Connection{
			FromAreaID: from, ToAreaID: to, Type: typ,
			ComponentType: compType, ComponentStatus: compStatus,
			ComponentName: compName, ComponentID: compID,
		}
	}
	return []types.Connection{
		conn("warehouse", "feeding", "material", "valve", "running", "Feed Valve V001", "comp1"),
		conn("feeding", "production", "material", "sensor", "normal", "Flow Sensor F001", "comp2"),
		conn("production", "filling", "product", "pump", "running", "Transfer Pump P001", "comp3"),
		conn("cleaning", "filling", "equipment", "valve", "normal", "Cleaning Supply Valve V002", "comp4"),
		conn("filling", "finished_goods", "product", "conveyor", "running", "Product Line C001", "comp5"),
	}
}

func defaultAlerts(now time.Time) []types.Alert {
	alert := func(ago time.Duration, msg string, sev types.Severity, device, area string, read bool) types.Alert {
		at := now.Add(-ago)
		return types.Alert{
			OccurredAt: at,
			Message:    msg,
			Severity:   sev,
			DeviceRef:  types.StrPtr(device),
			AreaRef:    types.StrPtr(area),
			IsRead:     read,
			CreatedAt:  at,
		}
	}
	return []types.Alert{
		alert(15*time.Minute, "Feeder running normally", types.SeverityInfo, "feeder1", "feeding", true),
		alert(10*time.Minute, "Washer 1 needs maintenance", types.SeverityWarning, "washer1", "cleaning", false),
		alert(5*time.Minute, "Warehouse stock running low", types.SeverityInfo, "", "warehouse", false),
		alert(2*time.Minute, "Filler 1 speed anomaly", types.SeverityError, "filler1", "filling", false),
		alert(0, "Reactor 1 over temperature", types.SeverityWarning, "reactor1", "production", false),
	}
}
