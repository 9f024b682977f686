package storage

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/smartfactory/smartfactory/internal/types"
)

// AreaStore persists floor-plan areas
type AreaStore struct {
	db *gorm.DB
}

// NewAreaStore creates an area store on db
func NewAreaStore(db *gorm.DB) *AreaStore {
	return &AreaStore{db: db}
}

// List returns all areas with their devices, ordered by id
func (s *AreaStore) List(ctx context.Context) ([]types.Area, error) {
	var areas []types.Area
	err := s.db.WithContext(ctx).
		Preload("Devices", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Order("id ASC").
		Find(&areas).Error
	if err != nil {
		return nil, fmt.Errorf("listing areas: %w", err)
	}
	return areas, nil
}

// Get loads one area with its devices
func (s *AreaStore) Get(ctx context.Context, id string) (*types.Area, error) {
	var area types.Area
	err := s.db.WithContext(ctx).
		Preload("Devices", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("id = ?", id).
		First(&area).Error
	if err != nil {
		return nil, notFound(err, "area", id)
	}
	return &area, nil
}

// Create inserts a new area
func (s *AreaStore) Create(ctx context.Context, area *types.Area) error {
	if area.ID == "" || area.Name == "" || area.Type == "" {
		return fmt.Errorf("area id, name and type are required: %w", ErrInvalid)
	}
	if area.Status == "" {
		area.Status = types.AreaNormal
	}
	if err := s.db.WithContext(ctx).Create(area).Error; err != nil {
		return fmt.Errorf("creating area %s: %w", area.ID, err)
	}
	return nil
}

// Update loads the area, lets apply mutate it, and saves the result.
// The id cannot be changed.
func (s *AreaStore) Update(ctx context.Context, id string, apply func(*types.Area) error) (*types.Area, error) {
	var area types.Area
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&area).Error; err != nil {
			return notFound(err, "area", id)
		}
		if err := apply(&area); err != nil {
			return fmt.Errorf("%v: %w", err, ErrInvalid)
		}
		area.ID = id
		area.Devices = nil
		return tx.Omit("Devices").Save(&area).Error
	})
	if err != nil {
		return nil, err
	}
	return &area, nil
}

// Delete removes an area and its devices in one transaction
func (s *AreaStore) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("area_id = ?", id).Delete(&types.Device{}).Error; err != nil {
			return fmt.Errorf("deleting devices of area %s: %w", id, err)
		}
		res := tx.Where("id = ?", id).Delete(&types.Area{})
		if res.Error != nil {
			return fmt.Errorf("deleting area %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("area %s: %w", id, ErrNotFound)
		}
		return nil
	})
}

// DeviceStore persists devices and their status log
type DeviceStore struct {
	db *gorm.DB
}

// NewDeviceStore creates a device store on db
func NewDeviceStore(db *gorm.DB) *DeviceStore {
	return &DeviceStore{db: db}
}

// List returns all devices ordered by id
func (s *DeviceStore) List(ctx context.Context) ([]types.Device, error) {
	var devices []types.Device
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&devices).Error; err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}
	return devices, nil
}

// Get loads one device
func (s *DeviceStore) Get(ctx context.Context, id string) (*types.Device, error) {
	var device types.Device
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&device).Error; err != nil {
		return nil, notFound(err, "device", id)
	}
	return &device, nil
}

// Create inserts a new device
func (s *DeviceStore) Create(ctx context.Context, device *types.Device) error {
	if device.ID == "" || device.AreaID == "" || device.Name == "" || device.Type == "" {
		return fmt.Errorf("device id, areaId, name and type are required: %w", ErrInvalid)
	}
	if device.Status == "" {
		device.Status = types.DeviceIdle
	}
	if err := s.db.WithContext(ctx).Create(device).Error; err != nil {
		return fmt.Errorf("creating device %s: %w", device.ID, err)
	}
	return nil
}

// Update loads the device, lets apply mutate it, and saves the result
func (s *DeviceStore) Update(ctx context.Context, id string, apply func(*types.Device) error) (*types.Device, error) {
	var device types.Device
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&device).Error; err != nil {
			return notFound(err, "device", id)
		}
		if err := apply(&device); err != nil {
			return fmt.Errorf("%v: %w", err, ErrInvalid)
		}
		device.ID = id
		return tx.Save(&device).Error
	})
	if err != nil {
		return nil, err
	}
	return &device, nil
}

// SetStatus changes a device status and appends a log entry atomically.
// It returns the previous status.
func (s *DeviceStore) SetStatus(ctx context.Context, id, action, status string) (string, error) {
	var old string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var device types.Device
		if err := tx.Where("id = ?", id).First(&device).Error; err != nil {
			return notFound(err, "device", id)
		}
		old = device.Status
		if err := tx.Model(&device).Update("status", status).Error; err != nil {
			return fmt.Errorf("updating device %s status: %w", id, err)
		}
		entry := types.DeviceLog{
			DeviceID:  id,
			Action:    action,
			OldStatus: old,
			NewStatus: status,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("writing device log for %s: %w", id, err)
		}
		return nil
	})
	return old, err
}

// Delete removes a device
func (s *DeviceStore) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&types.Device{})
	if res.Error != nil {
		return fmt.Errorf("deleting device %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("device %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeviceLogLimit caps the log listing per device
const DeviceLogLimit = 50

// Logs returns the most recent status log entries for a device
func (s *DeviceStore) Logs(ctx context.Context, id string) ([]types.DeviceLog, error) {
	var logs []types.DeviceLog
	err := s.db.WithContext(ctx).
		Where("device_id = ?", id).
		Order("created_at DESC").
		Order("id DESC").
		Limit(DeviceLogLimit).
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("listing logs for device %s: %w", id, err)
	}
	return logs, nil
}

// ConnectionStore persists area-to-area connections
type ConnectionStore struct {
	db *gorm.DB
}

// NewConnectionStore creates a connection store on db
func NewConnectionStore(db *gorm.DB) *ConnectionStore {
	return &ConnectionStore{db: db}
}

// List returns all connections ordered by id
func (s *ConnectionStore) List(ctx context.Context) ([]types.Connection, error) {
	var conns []types.Connection
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&conns).Error; err != nil {
		return nil, fmt.Errorf("listing connections: %w", err)
	}
	return conns, nil
}

// Get loads one connection
func (s *ConnectionStore) Get(ctx context.Context, id uint) (*types.Connection, error) {
	var conn types.Connection
	if err := s.db.WithContext(ctx).First(&conn, id).Error; err != nil {
		return nil, notFound(err, "connection", id)
	}
	return &conn, nil
}

// Create inserts a new connection
func (s *ConnectionStore) Create(ctx context.Context, conn *types.Connection) error {
	if conn.FromAreaID == "" || conn.ToAreaID == "" || conn.Type == "" {
		return fmt.Errorf("connection fromAreaId, toAreaId and type are required: %w", ErrInvalid)
	}
	conn.ID = 0
	if err := s.db.WithContext(ctx).Create(conn).Error; err != nil {
		return fmt.Errorf("creating connection: %w", err)
	}
	return nil
}

// Update loads the connection, lets apply mutate it, and saves the result
func (s *ConnectionStore) Update(ctx context.Context, id uint, apply func(*types.Connection) error) (*types.Connection, error) {
	var conn types.Connection
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&conn, id).Error; err != nil {
			return notFound(err, "connection", id)
		}
		if err := apply(&conn); err != nil {
			return fmt.Errorf("%v: %w", err, ErrInvalid)
		}
		conn.ID = id
		return tx.Save(&conn).Error
	})
	if err != nil {
		return nil, err
	}
	return &conn, nil
}

// Delete removes a connection
func (s *ConnectionStore) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&types.Connection{}, id)
	if res.Error != nil {
		return fmt.Errorf("deleting connection %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("connection %d: %w", id, ErrNotFound)
	}
	return nil
}
