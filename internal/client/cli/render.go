package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/iotadmin/internal/client/firmware"
	"github.com/dmitrijs2005/iotadmin/internal/client/models"
	"github.com/dmitrijs2005/iotadmin/internal/common"
)

const dateLayout = "02/01/2006"

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func renderUsers(w io.Writer, users []models.User, stats models.UserStats, now time.Time) {
	fmt.Fprintf(w, "Users: %d total, %d new in the last week\n", stats.Total, stats.NewLastWeek)
	if len(users) == 0 {
		fmt.Fprintln(w, "No users registered")
		return
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "USERNAME\tEMAIL\tUUID\tREGISTERED\t")
	for _, u := range users {
		registered := "-"
		if !u.RegistrationDate.IsZero() {
			registered = u.RegistrationDate.Local().Format(dateLayout)
		}
		if u.IsNew(now) {
			registered += " (new)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", u.Username, u.Email, u.ShortUUID(), registered)
	}
	tw.Flush()
}

// firmwareView is everything the firmware screen shows at once.
type firmwareView struct {
	Records    []models.Firmware
	FetchedAt  time.Time
	Selected   *firmware.Artifact
	DragActive bool
	Form       firmware.UploadState
	Pending    *models.Firmware
	Deleting   bool
}

func renderFirmware(w io.Writer, v firmwareView) {
	renderUploadForm(w, v)
	fmt.Fprintln(w)

	if active, ok := models.ActiveFirmware(v.Records); ok {
		fmt.Fprintf(w, "Active firmware: %s (%s)\n", active.Version, active.DisplayName())
	} else {
		fmt.Fprintln(w, "Active firmware: none")
	}
	if !v.FetchedAt.IsZero() {
		fmt.Fprintf(w, "Last refreshed: %s\n", v.FetchedAt.Local().Format(time.DateTime))
	}

	if len(v.Records) == 0 {
		fmt.Fprintln(w, "No firmware uploaded yet")
	} else {
		tw := newTable(w)
		fmt.Fprintln(tw, "#\tID\tVERSION\tFILE\tSIZE\tUPLOADED\tACTIVE\tDOWNLOADS\tDESCRIPTION\t")
		for i, f := range v.Records {
			uploaded := "-"
			if !f.CreatedAt.IsZero() {
				uploaded = f.CreatedAt.Local().Format(dateLayout)
			}
			active := ""
			if f.IsActive {
				active = "*"
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%d\t%s\t\n",
				i+1,
				common.Truncate(f.ID, 8, ""),
				f.Version,
				f.DisplayName(),
				firmware.FormatSize(f.Size),
				uploaded,
				active,
				f.Downloads,
				common.Truncate(firstLine(f.Description), 40, "..."),
			)
		}
		tw.Flush()
	}

	if v.Pending != nil {
		fmt.Fprintln(w)
		renderDeletePrompt(w, *v.Pending, v.Deleting)
	}
}

func renderUploadForm(w io.Writer, v firmwareView) {
	fmt.Fprintln(w, "Upload firmware")
	switch {
	case v.DragActive:
		fmt.Fprintln(w, "  File:        drop the file here")
	case v.Selected != nil:
		fmt.Fprintf(w, "  File:        %s (%s, via %s)\n", v.Selected.Name, firmware.FormatSize(v.Selected.Size), v.Selected.Source)
	default:
		fmt.Fprintf(w, "  File:        none (allowed: %s)\n", strings.Join(firmware.AllowedExtensions, ", "))
	}
	fmt.Fprintf(w, "  Version:     %s\n", orDash(v.Form.Version))
	fmt.Fprintf(w, "  Description: %s\n", orDash(firstLine(v.Form.Description)))
	if v.Form.InFlight {
		fmt.Fprintf(w, "  Uploading:   %d%%\n", v.Form.Progress)
	}
}

func renderDeletePrompt(w io.Writer, rec models.Firmware, deleting bool) {
	if deleting {
		fmt.Fprintf(w, "Deleting firmware %s...\n", rec.Version)
		return
	}
	fmt.Fprintf(w, "Delete firmware %s (%s)? This cannot be undone. Type 'confirm' or 'cancel'.\n",
		rec.Version, rec.DisplayName())
}

// resolveFirmware finds a record by table position ("3" or "#3"), full id or
// unique id prefix.
func resolveFirmware(records []models.Firmware, ref string) (models.Firmware, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return models.Firmware{}, false
	}

	if n, err := strconv.Atoi(strings.TrimPrefix(ref, "#")); err == nil {
		if n >= 1 && n <= len(records) {
			return records[n-1], true
		}
		if strings.HasPrefix(ref, "#") {
			return models.Firmware{}, false
		}
	}

	var match *models.Firmware
	for i := range records {
		if records[i].ID == ref {
			return records[i], true
		}
		if strings.HasPrefix(records[i].ID, ref) {
			if match != nil {
				return models.Firmware{}, false
			}
			match = &records[i]
		}
	}
	if match == nil {
		return models.Firmware{}, false
	}
	return *match, true
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
