package model

// Settings holds the branding shown on the landing page.
type Settings struct {
	OrgName        string `json:"orgName"`
	AppLogo        string `json:"appLogo"`
	LandingBgColor string `json:"landingBgColor"`
	LandingBgImage string `json:"landingBgImage"`
}

// DefaultOrgName is displayed when no organisation name is configured.
const DefaultOrgName = "Renova Recycle Center"

// DisplayName returns the organisation name or the default.
func (s Settings) DisplayName() string {
	if s.OrgName == "" {
		return DefaultOrgName
	}
	return s.OrgName
}
