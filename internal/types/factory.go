package types

import "time"

// Area status values
const (
	AreaNormal  = "normal"
	AreaWarning = "warning"
	AreaError   = "error"
)

// Device status values
const (
	DeviceRunning = "running"
	DeviceIdle    = "idle"
	DeviceError   = "error"
	DeviceWarning = "warning"
)

// Area is a rectangular zone on the factory floor plan, in grid units
type Area struct {
	ID          string    `gorm:"primaryKey;size:50" json:"id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Type        string    `gorm:"size:50;not null" json:"type"`
	GridX       float64   `gorm:"column:grid_x;type:decimal(10,2)" json:"gridX"`
	GridY       float64   `gorm:"column:grid_y;type:decimal(10,2)" json:"gridY"`
	GridWidth   float64   `gorm:"column:grid_width;type:decimal(10,2)" json:"gridWidth"`
	GridHeight  float64   `gorm:"column:grid_height;type:decimal(10,2)" json:"gridHeight"`
	Status      string    `gorm:"size:16;not null;default:normal" json:"status"`
	DeviceCount int       `gorm:"column:device_count;not null;default:0" json:"deviceCount"`
	Devices     []Device  `gorm:"foreignKey:AreaID;constraint:OnDelete:CASCADE" json:"devices"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

func (Area) TableName() string { return "areas" }

// Device is a machine placed inside an area
type Device struct {
	ID          string    `gorm:"primaryKey;size:50" json:"id"`
	AreaID      string    `gorm:"column:area_id;size:50;not null;index" json:"areaId"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Type        string    `gorm:"size:50;not null" json:"type"`
	Status      string    `gorm:"size:16;not null;default:idle" json:"status"`
	GridX       float64   `gorm:"column:grid_x;type:decimal(10,2)" json:"gridX"`
	GridY       float64   `gorm:"column:grid_y;type:decimal(10,2)" json:"gridY"`
	Efficiency  int       `gorm:"not null;default:0" json:"efficiency"`
	Temperature float64   `gorm:"type:decimal(5,2);default:0" json:"temperature"`
	AnimationX  *float64  `gorm:"column:animation_x;type:decimal(10,2)" json:"animationX,omitempty"`
	AnimationY  *float64  `gorm:"column:animation_y;type:decimal(10,2)" json:"animationY,omitempty"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

func (Device) TableName() string { return "devices" }

// Connection links two areas and carries an inline component (valve, pump, ...)
type Connection struct {
	ID              uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	FromAreaID      string    `gorm:"column:from_area_id;size:50;not null" json:"fromAreaId"`
	ToAreaID        string    `gorm:"column:to_area_id;size:50;not null" json:"toAreaId"`
	Type            string    `gorm:"size:50;not null" json:"type"`
	ComponentType   string    `gorm:"column:component_type;size:50" json:"componentType"`
	ComponentStatus string    `gorm:"column:component_status;size:50" json:"componentStatus"`
	ComponentName   string    `gorm:"column:component_name;size:100" json:"componentName"`
	ComponentID     string    `gorm:"column:component_id;size:50" json:"componentId"`
	CreatedAt       time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt       time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

func (Connection) TableName() string { return "connections" }

// DeviceLog records one device status transition
type DeviceLog struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	DeviceID  string    `gorm:"column:device_id;size:50;not null;index" json:"deviceId"`
	Action    string    `gorm:"size:50;not null" json:"action"`
	OldStatus string    `gorm:"column:old_status;size:50" json:"oldStatus"`
	NewStatus string    `gorm:"column:new_status;size:50" json:"newStatus"`
	Operator  *string   `gorm:"size:50" json:"operator"`
	CreatedAt time.Time `gorm:"column:created_at" json:"createdAt"`
}

func (DeviceLog) TableName() string { return "device_logs" }
