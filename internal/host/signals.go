// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gnist Contributors

package host

// Lifecycle signals fired by the host runtime.
const (
	PluginsLoaded       = "plugins_loaded"
	Init                = "init"
	SetupTheme          = "setup_theme"
	AfterSetupTheme     = "after_setup_theme"
	WPLoaded            = "wp_loaded"
	WP                  = "wp"
	AdminEnqueueScripts = "admin_enqueue_scripts"
	AdminNotices        = "admin_notices"
	AdminInit           = "admin_init"
	AdminMenu           = "admin_menu"
	AdminHead           = "admin_head"
	EnqueueScripts      = "wp_enqueue_scripts"
	Head                = "wp_head"
	BodyOpen            = "wp_body_open"
	Footer              = "wp_footer"
)

// ActivationHook returns the signal fired when pluginFile is activated.
func ActivationHook(pluginFile string) string {
	return "activate_" + pluginFile
}

// DeactivationHook returns the signal fired when pluginFile is deactivated.
func DeactivationHook(pluginFile string) string {
	return "deactivate_" + pluginFile
}

// Step is one signal in a lifecycle sequence. HookSuffix steps receive the
// request's admin page identifier as their only argument.
type Step struct {
	Hook       string
	HookSuffix bool
}

var bootSequence = []Step{
	{Hook: PluginsLoaded},
	{Hook: SetupTheme},
	{Hook: AfterSetupTheme},
	{Hook: Init},
	{Hook: WPLoaded},
}

var publicSequence = []Step{
	{Hook: WP},
	{Hook: EnqueueScripts},
	{Hook: Head},
	{Hook: BodyOpen},
	{Hook: Footer},
}

var adminSequence = []Step{
	{Hook: AdminMenu},
	{Hook: AdminInit},
	{Hook: AdminEnqueueScripts, HookSuffix: true},
	{Hook: AdminHead},
	{Hook: AdminNotices},
}

// Sequence returns the signals a request of the given kind fires, in order:
// the shared boot signals followed by the front-end or admin signals.
func Sequence(kind Kind) []Step {
	steps := make([]Step, 0, len(bootSequence)+len(adminSequence))
	steps = append(steps, bootSequence...)
	switch kind {
	case KindAdmin:
		steps = append(steps, adminSequence...)
	case KindPublic:
		steps = append(steps, publicSequence...)
	}
	return steps
}
