package version

import (
	"encoding/json"
	"log"
	"runtime/debug"
)

// Info is the build information stamped into reports and the build_info
// metric.
type Info struct {
	Commit    string `json:"commit"`
	Time      string `json:"time"`
	Modified  bool   `json:"modified,omitempty"`
	GoVersion string `json:"goVersion"`
}

var Build = func() Info {
	v := Info{}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return v
	}
	v.GoVersion = info.GoVersion
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			v.Commit = setting.Value
		case "vcs.time":
			v.Time = setting.Value
		case "vcs.modified":
			v.Modified = setting.Value == "true"
		}
	}
	return v
}()

var Version = func() string {
	b, err := json.Marshal(&Build)
	if err != nil {
		log.Fatal(err)
	}
	return string(b)
}()
