package storage

type BadgerConfig struct {
	DataDir        string
	DisableLogging bool
	InMemory       bool
	SyncWrites     bool
	GCInterval     int64 // In seconds, 0 to disable
}

func DefaultConfig(dataDir string) BadgerConfig {
	return BadgerConfig{
		DataDir:        dataDir,
		DisableLogging: true,
		InMemory:       false,
		SyncWrites:     true,
		GCInterval:     3600, // 1 hour
	}
}

// InMemoryConfig returns a configuration backed by no files at all,
// used by tests and ephemeral deployments.
func InMemoryConfig() BadgerConfig {
	return BadgerConfig{
		DisableLogging: true,
		InMemory:       true,
		SyncWrites:     false,
	}
}
