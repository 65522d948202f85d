package revalidate

import "confsite/internal/archive/page"

// Document types the CMS sends in revalidation webhooks.
const (
	TypeHomePage       = "homePage"
	TypeSiteSettings   = "siteSettings"
	TypeSponsor        = "sponsor"
	TypeSpeaker        = "speaker"
	TypeTeamMember     = "teamMember"
	TypeSubmissionInfo = "submissionInfo"
	TypeArchive        = "archive"
	TypeRegistration   = "registration"
)

// PathsFor maps a changed document to the site paths whose rendering
// depends on it. all is true when every path is affected.
func PathsFor(docType, year string) (paths []string, all bool) {
	switch docType {
	case TypeSiteSettings:
		return []string{"/"}, true
	case TypeHomePage:
		return []string{"/"}, false
	case TypeSponsor:
		return []string{"/", "/sponsors"}, false
	case TypeSpeaker:
		return []string{"/speakers"}, false
	case TypeTeamMember:
		return []string{"/team"}, false
	case TypeSubmissionInfo:
		return []string{"/submissions"}, false
	case TypeArchive:
		if year == "" {
			return []string{page.PathPrefix}, false
		}
		return []string{page.PathPrefix, page.Path(year)}, false
	case TypeRegistration:
		return []string{}, false
	default:
		return []string{"/"}, false
	}
}
