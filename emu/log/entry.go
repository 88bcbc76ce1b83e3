package log

import "gopkg.in/Sirupsen/logrus.v0"

// Entry is a printf style log entry of a module.
type Entry struct {
	mod Module
}

func (entry Entry) log() *logrus.Entry {
	var z EntryZ
	addContexts(&z)
	fields := make(logrus.Fields, z.zfidx+1)
	fields["_mod"] = entry.mod.String()
	for i := range z.zfbuf[:z.zfidx] {
		fields[z.zfbuf[i].Key] = z.zfbuf[i].Value()
	}
	return logrus.StandardLogger().WithFields(fields)
}

func (entry Entry) Fatalf(format string, args ...any) {
	if entry.mod.Enabled(FatalLevel) {
		entry.log().Fatalf(format, args...)
	}
}
