package toolbar

const svgOpen = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 24 24" width="18" height="18" fill="none" stroke="currentColor" stroke-width="2">`

var defaultIcons = map[string]string{
	"link":           svgOpen + `<path d="M10 14a4 4 0 0 0 5.7 0l3-3a4 4 0 0 0-5.7-5.7l-1 1"/><path d="M14 10a4 4 0 0 0-5.7 0l-3 3a4 4 0 0 0 5.7 5.7l1-1"/></svg>`,
	"image":          svgOpen + `<rect x="3" y="3" width="18" height="18" rx="2"/><circle cx="9" cy="9" r="2"/><path d="M21 15l-5-5L5 21"/></svg>`,
	"rowDropdown":    svgOpen + `<rect x="3" y="3" width="18" height="18" rx="2"/><path d="M3 12h18"/></svg>`,
	"columnDropdown": svgOpen + `<rect x="3" y="3" width="18" height="18" rx="2"/><path d="M12 3v18"/></svg>`,
	"cellDropdown":   svgOpen + `<rect x="3" y="3" width="18" height="18" rx="2"/><path d="M3 12h18M12 3v18"/></svg>`,
	"deleteTable":    svgOpen + `<path d="M3 6h18M8 6V4h8v2M6 6l1 14h10l1-14"/></svg>`,

	"addRowBefore":    svgOpen + `<rect x="3" y="11" width="18" height="10" rx="2"/><path d="M12 2v6M9 5h6"/></svg>`,
	"addRowAfter":     svgOpen + `<rect x="3" y="3" width="18" height="10" rx="2"/><path d="M12 16v6M9 19h6"/></svg>`,
	"deleteRow":       svgOpen + `<rect x="3" y="8" width="18" height="8" rx="2"/><path d="M9 10l6 4M15 10l-6 4"/></svg>`,
	"headerRow":       svgOpen + `<rect x="3" y="3" width="18" height="18" rx="2"/><path d="M3 9h18"/><path d="M3 3h18v6H3z" fill="currentColor"/></svg>`,
	"addColumnBefore": svgOpen + `<rect x="11" y="3" width="10" height="18" rx="2"/><path d="M2 12h6M5 9v6"/></svg>`,
	"addColumnAfter":  svgOpen + `<rect x="3" y="3" width="10" height="18" rx="2"/><path d="M16 12h6M19 9v6"/></svg>`,
	"deleteColumn":    svgOpen + `<rect x="8" y="3" width="8" height="18" rx="2"/><path d="M10 9l4 6M14 9l-4 6"/></svg>`,
	"headerColumn":    svgOpen + `<rect x="3" y="3" width="18" height="18" rx="2"/><path d="M9 3v18"/><path d="M3 3h6v18H3z" fill="currentColor"/></svg>`,
	"mergeCells":      svgOpen + `<rect x="3" y="3" width="18" height="18" rx="2"/><path d="M7 12h10M14 9l3 3-3 3M10 9l-3 3 3 3"/></svg>`,
	"splitCell":       svgOpen + `<rect x="3" y="3" width="18" height="18" rx="2"/><path d="M12 3v18M8 9l-3 3 3 3M16 9l3 3-3 3"/></svg>`,

	"strong":           svgOpen + `<path d="M7 4h6a4 4 0 0 1 0 8H7zM7 12h7a4 4 0 0 1 0 8H7z"/></svg>`,
	"em":               svgOpen + `<path d="M10 4h8M6 20h8M14 4l-4 16"/></svg>`,
	"underline":        svgOpen + `<path d="M7 4v7a5 5 0 0 0 10 0V4M5 20h14"/></svg>`,
	"strikethrough":    svgOpen + `<path d="M4 12h16M16 6a4 3 0 0 0-8 1M8 18a4 3 0 0 0 8-1"/></svg>`,
	"code":             svgOpen + `<path d="M9 7l-5 5 5 5M15 7l5 5-5 5"/></svg>`,
	"blockType":        svgOpen + `<path d="M4 6h16M4 12h10M4 18h16"/></svg>`,
	"paragraph":        svgOpen + `<path d="M13 4v16M17 4v16M19 4h-9a4 4 0 0 0 0 8h3"/></svg>`,
	"codeBlock":        svgOpen + `<rect x="3" y="3" width="18" height="18" rx="2"/><path d="M10 9l-3 3 3 3M14 9l3 3-3 3"/></svg>`,
	"heading":          svgOpen + `<path d="M6 4v16M18 4v16M6 12h12"/></svg>`,
	"bulletList":       svgOpen + `<path d="M9 6h11M9 12h11M9 18h11"/><circle cx="4" cy="6" r="1"/><circle cx="4" cy="12" r="1"/><circle cx="4" cy="18" r="1"/></svg>`,
	"orderedList":      svgOpen + `<path d="M10 6h10M10 12h10M10 18h10M4 4h1v4M4 14h2l-2 4h2"/></svg>`,
	"blockquote":       svgOpen + `<path d="M6 17h3l2-4V7H5v6h3zM14 17h3l2-4V7h-6v6h3z"/></svg>`,
	"horizontalRule":   svgOpen + `<path d="M3 12h18"/></svg>`,
	"table":            svgOpen + `<rect x="3" y="3" width="18" height="18" rx="2"/><path d="M3 9h18M3 15h18M9 3v18M15 3v18"/></svg>`,
	"join":             svgOpen + `<path d="M12 20V8M7 13l5-5 5 5M4 4h16"/></svg>`,
	"lift":             svgOpen + `<path d="M20 12H8M13 7l-5 5 5 5M4 4v16"/></svg>`,
	"selectParentNode": svgOpen + `<rect x="3" y="3" width="18" height="18" rx="2" stroke-dasharray="3 2"/><rect x="8" y="8" width="8" height="8"/></svg>`,
}

// DefaultIcons looks up icons used by default menus.
func DefaultIcons(name string) string {
	return defaultIcons[name]
}
