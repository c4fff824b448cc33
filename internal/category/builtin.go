package category

// All is the category that allows every extension.
const All = "all"

// builtins are the categories shipped with filecrawl. They can be extended
// or shadowed by the category file but never removed.
var builtins = map[string][]string{
	"images":    {".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp", ".svg", ".ico"},
	"documents": {".pdf", ".doc", ".docx", ".txt", ".rtf", ".odt", ".xls", ".xlsx"},
	"archives":  {".zip", ".rar", ".7z", ".tar", ".gz", ".bz2"},
	"audio":     {".mp3", ".wav", ".ogg", ".flac", ".m4a", ".aac"},
	"video":     {".mp4", ".mkv", ".avi", ".mov", ".webm", ".flv"},
	"code":      {".py", ".js", ".html", ".css", ".json", ".xml", ".yaml", ".yml"},
	"midi":      {".mid", ".midi"},
	"arc":       {".zip", ".map", ".rec", ".png", ".jpg"},
	All:         {},
}

// defaultCategories make up the allow-list when no expression is given.
var defaultCategories = []string{"archives", "images"}

// IsBuiltin reports whether name is a built-in category.
func IsBuiltin(name string) bool {
	_, ok := builtins[name]
	return ok
}
