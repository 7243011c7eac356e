// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gnist Contributors

package relay

// Namespaced signals, written without the namespace prefix.
const (
	Loaded                 = "loaded"
	Init                   = "init"
	Actions                = "actions"
	RegisterCustomPostType = "register/custom_post_type"
	RegisterTaxonomy       = "register/taxonomy"
	SetupTheme             = "setup_theme"
	AfterSetupTheme        = "after/setup_theme"
	WPLoaded               = "wp_loaded"
	WP                     = "wp"

	AdminScripts = "admin/scripts"
	AdminScreens = "admin/screens"
	AdminNotices = "admin/notices"
	AdminInit    = "admin/init"
	AdminMenu    = "admin/menu"
	AdminHead    = "admin/head"

	PublicScripts = "public/scripts"
	Head          = "wp/head"
	BodyOpen      = "wp/body_open"
	Footer        = "wp/footer"

	Activation   = "activation"
	Deactivation = "deactivation"

	LoadTextdomain       = "load_textdomain"
	PluginUpdateChecker  = "plugin_update_checker"
	Install              = "install"
	SetupRequirements    = "setup_requirements"
	RequirementsIncluded = "requirements_included"
	SetupGlobals         = "setup_globals"
	GlobalsIncluded      = "globals_included"
	SetupInstances       = "setup_instances"
	InstancesIncluded    = "instances_included"
)

// Defaults for a Relay built without options.
const (
	DefaultNamespace  = "gnist"
	DefaultPluginFile = "gnist/gnist.php"
)
