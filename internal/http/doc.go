// Package http provides HTTP handlers and middleware for the intention
// scheduling API.
//
// The router exposes the following endpoints:
//   - POST /intentions/preview: computes the proposed occurrence plan for a
//     submission without persisting anything. Repeated calls with the same
//     body return the same plan.
//   - POST /intentions: commits a submission (donor, intention, optional
//     recurrence and the planned masses) as one unit.
//   - GET /intentions/{id}, DELETE /intentions/{id}: return or cancel one
//     intention. Cancellation cascades to future scheduled masses while
//     completed celebrations keep their status.
//   - GET /masses?start=YYYY-MM-DD&end=YYYY-MM-DD, GET /masses/{id},
//     PUT /masses/{id}: calendar queries and manual occurrence edits.
//     Assigning a celebrant by hand pins the assignment against later
//     re-randomization.
//   - GET /celebrants, POST /celebrants, PUT /celebrants/{id}: celebrant pool
//     administration including the availability toggle.
//   - POST /celebrants/{id}/unavailable-days, DELETE /unavailable-days/{id}:
//     per-celebrant date blocks, optionally recurring every year.
//   - GET /special-days, POST /special-days: per-date overrides of the daily
//     celebration quota.
//   - POST /admin/jobs/extend-yearly, POST /admin/jobs/extend-monthly,
//     POST /admin/jobs/update-lifecycle: administrative triggers for the
//     background maintenance jobs, guarded by the configured administrator
//     password.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
