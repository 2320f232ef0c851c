package zoho

// Health is the sanitized runtime snapshot reported by the service health
// endpoint. It carries no credential material: TokenCached reports only
// whether an access token is currently held.
type Health struct {
	Status         string `json:"status"`
	Mode           string `json:"mode"`
	OrgID          string `json:"org_id"`
	Server         string `json:"server"`
	AccountsServer string `json:"accounts_server"`
	DataDir        string `json:"data_dir"`
	TokenCached    bool   `json:"token_cached"`
}

// Health reports the client's current runtime state without touching the
// network.
func (c *Client) Health() Health {
	return Health{
		Status:         "up",
		Mode:           "v2",
		OrgID:          c.config.OrgID,
		Server:         c.config.AnalyticsServer,
		AccountsServer: c.config.AccountsServer,
		DataDir:        c.config.DataDir,
		TokenCached:    c.store.Has(),
	}
}
