package styles

// Tip: To find icons use https://github.com/loichyan/nerdfix

var (
	IconComment   = ""          //
	IconDraft     = ""          //
	IconIssueOpen = ""          //
	IconResolved  = ""          //
	IconDropped   = ""          //
	IconGhost     = ""          //
	IconExpand    = ""          //
	IconCollapse  = ""          //
	IconFile      = ""          //
	IconBinary    = "\U000F0169" // 󰅩
	IconDeleted   = ""          //
	IconNewFile   = ""          //
)
