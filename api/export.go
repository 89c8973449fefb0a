package api

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// exportEventRegistrations streams every registration for an event as
// CSV. Pages through the store with the same cursor mechanism as the
// JSON listing, so memory stays bounded for large events.
func (a *API) exportEventRegistrations(w http.ResponseWriter, r *http.Request) {
	eventId, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		a.writeError(w, http.StatusBadRequest, InputValidationError, "Invalid event ID")
		return
	}

	event, err := a.db.GetEvent(r.Context(), eventId)
	if err != nil {
		a.writeError(w, http.StatusNotFound, NotFound, "Event not found")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", event.Name+"-registrations.csv"))

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"Name", "Email", "Roll Number", "Department", "Year", "College",
		"Phone Number", "Status", "Checked In", "Registration Date",
	}); err != nil {
		a.logger.Error("Failed to write CSV header", "error", err)
		return
	}

	var cursor *string
	for {
		page, err := a.db.GetRegistrationsForEvent(r.Context(), eventId, 50, cursor)
		if err != nil {
			// Headers are already out, so the best we can do is cut the
			// stream short and log it.
			a.logger.Error("Failed to page registrations during export", "error", err, "eventId", eventId)
			return
		}

		for _, reg := range page.Data {
			email := ""
			if holder, err := a.db.GetHolder(r.Context(), reg.HolderID); err == nil {
				email = holder.Email
			}

			checkedIn := "No"
			if reg.Redeemed {
				checkedIn = "Yes"
			}

			if err := cw.Write([]string{
				reg.Profile.FullName,
				email,
				reg.Profile.RollNumber,
				reg.Profile.Department,
				reg.Profile.Year,
				reg.Profile.CollegeName,
				reg.Profile.PhoneNumber,
				reg.Status.String(),
				checkedIn,
				reg.RegisteredAt.Format(time.RFC3339),
			}); err != nil {
				a.logger.Error("Failed to write CSV row", "error", err)
				return
			}
		}

		if !page.HasNextPage {
			break
		}
		cursor = page.Cursor
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		a.logger.Error("Failed to flush CSV export", "error", err)
	}
}
