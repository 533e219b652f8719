package api

import "net/http"

// Endpoint is a form target on the service.
type Endpoint struct {
	Name   string
	Method string
	Path   string
	// Page is the HTML page that renders the form, used to obtain a CSRF
	// token when none is cached.
	Page string
}

var (
	ProfileInfo      = Endpoint{Name: "profile", Method: http.MethodPost, Path: "/profile/info/", Page: "/profile/"}
	ChangePassword   = Endpoint{Name: "password", Method: http.MethodPost, Path: "/profile/changepassword/", Page: "/profile/"}
	Security         = Endpoint{Name: "security", Method: http.MethodPost, Path: "/profile/security/", Page: "/profile/"}
	ProcessRecords   = Endpoint{Name: "process", Method: http.MethodPost, Path: "/api/records/process/", Page: "/records/"}
	TerminateRecords = Endpoint{Name: "terminate", Method: http.MethodPost, Path: "/api/records/terminate/", Page: "/records/"}
	UploadRecords    = Endpoint{Name: "upload", Method: http.MethodPost, Path: "/api/records/upload/", Page: "/records/"}
)

// Endpoints lists every form endpoint.
func Endpoints() []Endpoint {
	return []Endpoint{ProfileInfo, ChangePassword, Security, ProcessRecords, TerminateRecords, UploadRecords}
}

// LookupEndpoint finds an endpoint by form name.
func LookupEndpoint(name string) (Endpoint, bool) {
	for _, ep := range Endpoints() {
		if ep.Name == name {
			return ep, true
		}
	}
	return Endpoint{}, false
}
