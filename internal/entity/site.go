package entity

// Site is one entry of the static platform catalog.
type Site struct {
	Name    string   `json:"name"`
	Icon    string   `json:"icon"`
	Domains []string `json:"domains"`
}

// PlatformInfo is the result of matching a URL against the catalog.
type PlatformInfo struct {
	Platform  string `json:"platform"`
	Domain    string `json:"domain"`
	Supported bool   `json:"supported"`
}
