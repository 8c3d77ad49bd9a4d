package action

// registerBuiltinTypes populates r with every required built-in action
// type (spec §4.8). `include` and `description` are loader-only head
// tokens (spec §4.5) and are not registered here — the Scenario Loader
// recognizes them before consulting this registry.
func registerBuiltinTypes(r *Registry) {
	registerStateTypes(r)
	registerTrackType(r)
	registerWaitTypes(r)
	registerPropertyTypes(r)
	registerAppsrcTypes(r)
}
