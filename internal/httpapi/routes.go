package httpapi

import "net/http"

type route struct {
	method  string
	pattern string
	summary string
	auth    bool
	handler http.HandlerFunc
}

func (s *Server) routeTable() []route {
	return []route{
		{http.MethodPost, "/login", "Register or log in and receive a session cookie", false, s.handleLogin},
		{http.MethodPost, "/logout", "End the current session", false, s.handleLogout},

		{http.MethodGet, "/profile-generator", "Profile generator page", false, s.handleGeneratorPage},
		{http.MethodGet, "/profile-generator/schemas/{name}", "Proxy one Library schema", false, s.handleSchema},
		{http.MethodPost, "/profile-generator/build", "Build a profile from submitted form data", false, s.handleBuild},
		{http.MethodPost, "/profile-generator/validate", "Validate a profile with the Index or locally", false, s.handleValidate},

		{http.MethodGet, "/profile-generator/profiles", "List the user's saved profiles", true, s.handleListProfiles},
		{http.MethodPost, "/profile-generator/profiles", "Validate and save a new profile", true, s.handleCreateProfile},
		{http.MethodGet, "/profile-generator/profiles/{cuid}", "Get one saved profile", true, s.handleGetProfile},
		{http.MethodPatch, "/profile-generator/profiles/{cuid}", "Validate and update a saved profile", true, s.handleUpdateProfile},
		{http.MethodDelete, "/profile-generator/profiles/{cuid}", "Delete a saved profile", true, s.handleDeleteProfile},
		{http.MethodPut, "/profile-generator/profiles/{cuid}/node-id", "Record the Index node id of a profile", true, s.handleSetNodeID},

		{http.MethodGet, "/profile-generator/index/{id}", "Index status of a node", false, s.handleNodeStatus},
		{http.MethodPost, "/profile-generator/index/{id}", "Publish a hosted profile to the Index", true, s.handlePublishProfile},
		{http.MethodDelete, "/profile-generator/index/{id}", "Delete a node from the Index", true, s.handleDeleteNode},

		{http.MethodGet, "/index-updater", "Look up a node by profile URL", false, s.handleUpdaterLookup},
		{http.MethodPost, "/index-updater", "Submit a profile URL to the Index", false, s.handleUpdaterSync},
		{http.MethodDelete, "/index-updater", "Delete a node by profile URL", false, s.handleUpdaterDelete},

		{http.MethodGet, "/index-explorer", "Index explorer page", false, s.handleExplorerPage},
		{http.MethodGet, "/index-explorer/nodes", "Search Index nodes", false, s.handleSearchNodes},

		{http.MethodGet, "/batch-importer", "List the user's batch imports", true, s.handleBatches},
		{http.MethodGet, "/profiles/{cuid}", "Public profile document", false, s.handlePublicProfile},
		{http.MethodGet, "/api/health-check/db", "Storage health check", false, s.handleHealth},
		{http.MethodGet, "/openapi.json", "This API description", false, s.handleOpenAPI},
	}
}
