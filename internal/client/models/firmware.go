// Package models defines client-side data models used by the iotadmin CLI.
package models

import "time"

// Firmware is the client-cached copy of a server-owned firmware record.
type Firmware struct {
	ID           string    `json:"_id"`
	Version      string    `json:"version"`
	OriginalName string    `json:"originalName,omitempty"`
	Filename     string    `json:"filename,omitempty"`
	Description  string    `json:"description,omitempty"`
	Size         int64     `json:"size"`
	CreatedAt    time.Time `json:"createdAt"`
	IsActive     bool      `json:"isActive"`
	Downloads    int64     `json:"downloads"`
}

// DisplayName prefers the name the file was uploaded with over the
// server-side storage name.
func (f Firmware) DisplayName() string {
	if f.OriginalName != "" {
		return f.OriginalName
	}
	return f.Filename
}

// FirmwareList is the canonical wire envelope of GET /api/firmware.
type FirmwareList struct {
	Firmwares []Firmware `json:"firmwares"`
}

// ActiveFirmware returns the record flagged active, if any. The server keeps
// at most one.
func ActiveFirmware(list []Firmware) (Firmware, bool) {
	for _, f := range list {
		if f.IsActive {
			return f, true
		}
	}
	return Firmware{}, false
}

// UploadMetadata is what the operator types next to the file.
type UploadMetadata struct {
	Version     string
	Description string
}
