package fonts

import "runtime"

// SystemFonts returns the system font table for the running OS.
func SystemFonts() map[string][]string {
	return systemFontsFor(runtime.GOOS)
}

func systemFontsFor(goos string) map[string][]string {
	switch goos {
	case "windows":
		dir := `C:\Windows\Fonts\`
		return map[string][]string{
			"Arial":           {dir + "arial.ttf"},
			"Times New Roman": {dir + "times.ttf"},
			"Courier New":     {dir + "cour.ttf"},
			"Verdana":         {dir + "verdana.ttf"},
			"Tahoma":          {dir + "tahoma.ttf"},
			"Comic Sans MS":   {dir + "comic.ttf"},
			"Georgia":         {dir + "georgia.ttf"},
			"Impact":          {dir + "impact.ttf"},
			"Trebuchet MS":    {dir + "trebuc.ttf"},
		}
	case "darwin":
		return map[string][]string{
			"Arial":           {"/Library/Fonts/Arial.ttf", "/System/Library/Fonts/Supplemental/Arial.ttf"},
			"Helvetica":       {"/System/Library/Fonts/Helvetica.ttc"},
			"Times New Roman": {"/Library/Fonts/Times New Roman.ttf", "/System/Library/Fonts/Supplemental/Times New Roman.ttf"},
			"Courier":         {"/System/Library/Fonts/Courier.ttc"},
			"Verdana":         {"/Library/Fonts/Verdana.ttf", "/System/Library/Fonts/Supplemental/Verdana.ttf"},
			"Georgia":         {"/Library/Fonts/Georgia.ttf", "/System/Library/Fonts/Supplemental/Georgia.ttf"},
			"Monaco":          {"/System/Library/Fonts/Monaco.ttf", "/System/Library/Fonts/Monaco.dfont"},
		}
	default:
		return map[string][]string{
			"DejaVu Sans": {
				"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
				"/usr/share/fonts/TTF/DejaVuSans.ttf",
				"/usr/share/fonts/dejavu/DejaVuSans.ttf",
			},
			"Liberation Sans": {
				"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
				"/usr/share/fonts/liberation/LiberationSans-Regular.ttf",
				"/usr/share/fonts/TTF/LiberationSans-Regular.ttf",
			},
			"Ubuntu": {
				"/usr/share/fonts/truetype/ubuntu/Ubuntu-R.ttf",
				"/usr/share/fonts/ubuntu/Ubuntu-R.ttf",
			},
		}
	}
}
