// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gnist Contributors

package relay

import "github.com/gnistdesign/gnist/internal/host"

// Entry is one row of the relay table: when Upstream fires at Priority, the
// relay emits every name in Emits, in order, with the upstream arguments.
//
// Upstream names a host signal unless Namespaced is set, in which case it is a
// short name resolved inside the relay's own namespace. Activation and
// deactivation rows leave Upstream empty; their host signal depends on the
// plugin file and is resolved by Relay.Upstream.
type Entry struct {
	Callback   string
	Upstream   string
	Namespaced bool
	Priority   int
	Emits      []string

	// AdminScreens marks the admin scripts row, which queries the
	// admin/screens filter and forwards (hook suffix, screens).
	AdminScreens bool

	activation   bool
	deactivation bool
}

// table is declaration order. Entries that share an upstream and priority
// run in this order; downstream extensions depend on it.
var table = []Entry{
	{Callback: "loaded", Upstream: host.PluginsLoaded, Priority: 5, Emits: []string{Loaded}},
	{Callback: "init", Upstream: host.Init, Priority: 0, Emits: []string{Init}},
	{Callback: "actions", Upstream: host.Init, Priority: 5, Emits: []string{Actions}},
	{Callback: "register_custom_post_type", Upstream: host.Init, Priority: 5, Emits: []string{RegisterCustomPostType}},
	{Callback: "register_taxonomy", Upstream: host.Init, Priority: 5, Emits: []string{RegisterTaxonomy}},
	{Callback: "setup_theme", Upstream: host.SetupTheme, Priority: 10, Emits: []string{SetupTheme}},
	{Callback: "after_setup_theme", Upstream: host.AfterSetupTheme, Priority: 10, Emits: []string{AfterSetupTheme}},
	{Callback: "wp_loaded", Upstream: host.WPLoaded, Priority: 10, Emits: []string{WPLoaded}},
	{Callback: "wp", Upstream: host.WP, Priority: 10, Emits: []string{WP}},

	{Callback: "admin_enqueue_scripts", Upstream: host.AdminEnqueueScripts, Priority: 10, Emits: []string{AdminScripts}, AdminScreens: true},
	{Callback: "admin_notices", Upstream: host.AdminNotices, Priority: 10, Emits: []string{AdminNotices}},
	{Callback: "admin_init", Upstream: host.AdminInit, Priority: 10, Emits: []string{AdminInit}},
	{Callback: "admin_menu", Upstream: host.AdminMenu, Priority: 10, Emits: []string{AdminMenu}},
	{Callback: "admin_head", Upstream: host.AdminHead, Priority: 10, Emits: []string{AdminHead}},

	{Callback: "enqueue_scripts", Upstream: host.EnqueueScripts, Priority: 10, Emits: []string{PublicScripts}},
	{Callback: "wp_head", Upstream: host.Head, Priority: 10, Emits: []string{Head}},
	{Callback: "wp_body_open", Upstream: host.BodyOpen, Priority: 10, Emits: []string{BodyOpen}},
	{Callback: "wp_footer", Upstream: host.Footer, Priority: 10, Emits: []string{Footer}},

	{Callback: "activation", Priority: 10, Emits: []string{Activation}, activation: true},
	{Callback: "deactivation", Priority: 10, Emits: []string{Deactivation}, deactivation: true},

	// Attached to the namespaced init signal emitted above.
	{Callback: "load_textdomain", Upstream: Init, Namespaced: true, Priority: 0, Emits: []string{LoadTextdomain}},
	{Callback: "plugin_update_checker", Upstream: Init, Namespaced: true, Priority: 5, Emits: []string{PluginUpdateChecker}},
	{Callback: "install", Upstream: Init, Namespaced: true, Priority: 5, Emits: []string{Install}},
	{Callback: "setup_requirements", Upstream: Init, Namespaced: true, Priority: 10, Emits: []string{SetupRequirements, RequirementsIncluded}},
	{Callback: "setup_globals", Upstream: Init, Namespaced: true, Priority: 10, Emits: []string{SetupGlobals, GlobalsIncluded}},
	{Callback: "setup_instances", Upstream: Init, Namespaced: true, Priority: 10, Emits: []string{SetupInstances, InstancesIncluded}},
}

// Table returns a copy of the relay table in declaration order.
func Table() []Entry {
	out := make([]Entry, len(table))
	for i, e := range table {
		e.Emits = append([]string(nil), e.Emits...)
		out[i] = e
	}
	return out
}

// Downstream returns every short name the relay can emit, in table order,
// plus the admin/screens filter it queries.
func Downstream() []string {
	var names []string
	for _, e := range table {
		names = append(names, e.Emits...)
		if e.AdminScreens {
			names = append(names, AdminScreens)
		}
	}
	return names
}
