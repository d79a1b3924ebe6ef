package job

// Kind names one of the typed job kinds the loader dispatches (spec.md
// §4.5). Each Kind corresponds to an Input type in types.go.
type Kind string

const (
	KindRefine                 Kind = "refine"
	KindListApps               Kind = "list-apps"
	KindRefreshMetadata        Kind = "refresh-metadata"
	KindListDistroUpgrades     Kind = "list-distro-upgrades"
	KindManageRepository       Kind = "manage-repository"
	KindUpdateApps             Kind = "update-apps"
	KindInstallApps            Kind = "install-apps"
	KindRemoveApps             Kind = "remove-apps"
	KindInstall                Kind = "install"
	KindRemove                 Kind = "remove"
	KindUpgradeDownload        Kind = "upgrade-download"
	KindUpgradeTrigger         Kind = "upgrade-trigger"
	KindLaunch                 Kind = "launch"
	KindUpdateCancel           Kind = "update-cancel"
	KindFileToApp              Kind = "file-to-app"
	KindURLToApp               Kind = "url-to-app"
	KindGetOfflineUpdateState  Kind = "get-offline-update-state"
	KindCancelOfflineUpdate    Kind = "cancel-offline-update"
	KindSetOfflineUpdateAction Kind = "set-offline-update-action"
)

// maskableKinds get the "log-and-swallow per plugin error" treatment from
// spec.md §7: a failing plugin's error is logged and dropped, and the job
// itself still succeeds. The error is not added to the job's event bus,
// and GS_SELF_TEST_PLUGIN_ERROR_FAIL_HARD does not change this.
var maskableKinds = map[Kind]bool{
	KindListApps:        true, // covers get-updates/get-sources/get-langpacks shaped queries
	KindRefreshMetadata: true,
	KindUpdateApps:      true,
}

// Maskable reports whether per-plugin errors for this job kind should be
// masked into events rather than surfaced as the job's overall failure.
func (k Kind) Maskable() bool { return maskableKinds[k] }

// Interactive reports whether this job kind is user-initiated in a way
// that should hold the plugin's interactive scope-guard open (spec.md §9
// "interactive counter"). Background/read jobs are not interactive.
func (k Kind) Interactive() bool {
	switch k {
	case KindInstall, KindInstallApps, KindRemove, KindRemoveApps, KindUpdateApps,
		KindUpgradeDownload, KindUpgradeTrigger, KindLaunch, KindManageRepository:
		return true
	default:
		return false
	}
}

// Bounded reports whether this job kind runs on the bounded install/download
// thread pool rather than the unbounded one (spec.md §4.4, §5).
func (k Kind) Bounded() bool {
	switch k {
	case KindInstall, KindInstallApps, KindUpgradeDownload:
		return true
	default:
		return false
	}
}
