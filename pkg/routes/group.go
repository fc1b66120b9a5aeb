package routes

import "net/http"

// Group organizes routes and nested groups under a common prefix.
type Group struct {
	Prefix   string
	Routes   []Route
	Children []Group
}

// Mount returns a group that nests groups under prefix.
func Mount(prefix string, groups ...Group) Group {
	return Group{Prefix: prefix, Children: groups}
}

// Register adds all routes from the given groups to the mux.
func Register(mux *http.ServeMux, groups ...Group) {
	for _, group := range groups {
		register(mux, "", group)
	}
}

func register(mux *http.ServeMux, parent string, group Group) {
	prefix := parent + group.Prefix
	for _, route := range group.Routes {
		mux.HandleFunc(route.pattern(prefix), route.Handler)
	}
	for _, child := range group.Children {
		register(mux, prefix, child)
	}
}
