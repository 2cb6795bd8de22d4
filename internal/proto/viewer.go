package proto

// ViewerFrame types pushed to overlay viewers.
const (
	ViewerRender = "render"
)

// ViewerFrame is what the overlay page receives over its socket: the fully
// rendered message list for one snapshot version.
type ViewerFrame struct {
	Type    string `json:"type"`
	Version uint64 `json:"version"`
	Count   int    `json:"count"`
	HTML    string `json:"html"`
}
