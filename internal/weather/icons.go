package weather

import "strings"

// Icon is a symbolic icon id understood by the dashboard.
type Icon string

const (
	IconSun          Icon = "sun"
	IconMoon         Icon = "moon"
	IconSunCloud     Icon = "sun-cloud"
	IconCloudMoon    Icon = "cloud-moon"
	IconCloud        Icon = "cloud"
	IconDrizzle      Icon = "drizzle"
	IconRain         Icon = "rain"
	IconThunderstorm Icon = "thunderstorm"
	IconSnow         Icon = "snow"
	IconFog          Icon = "fog"
)

// ResolveIcon maps an OpenWeather icon code ("01d", "10n", ...) to an Icon.
// The first two characters pick the family and a trailing "n" selects the
// night variant. Unknown or short codes resolve to IconCloud.
func ResolveIcon(code string) Icon {
	night := strings.HasSuffix(code, "n")

	if len(code) < 2 {
		return IconCloud
	}

	switch code[:2] {
	case "01": // clear sky
		if night {
			return IconMoon
		}
		return IconSun
	case "02": // few clouds
		if night {
			return IconCloudMoon
		}
		return IconSunCloud
	case "03", "04":
		return IconCloud
	case "09":
		return IconDrizzle
	case "10":
		return IconRain
	case "11":
		return IconThunderstorm
	case "13":
		return IconSnow
	case "50": // mist, fog, haze
		return IconFog
	default:
		return IconCloud
	}
}
