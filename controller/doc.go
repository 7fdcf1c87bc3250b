// Package controller holds the state behind each screen: search, detail,
// home and saved. Controllers compose the catalog client, the backend
// service, the session state and fetch hooks; they render nothing.
package controller
