package eventbus

// Event names published across system boundaries. Presentation code
// subscribes to these; game systems publish them.
const (
	// Time progression.
	EventTimeHour   = "time:hour"
	EventTimeDay    = "time:day"
	EventTimeSeason = "time:season"

	// Characters.
	EventCharacterSpawn   = "character:spawn"
	EventCharacterDeath   = "character:death"
	EventCharacterSkillUp = "character:skillup"
	EventCharacterStatus  = "character:status"

	// Resources.
	EventResourceGain = "resource:gain"

	// Base and buildings.
	EventBaseBuild          = "base:build"
	EventBaseUpgrade        = "base:upgrade"
	EventBuildingDamage     = "building:damage"
	EventBuildingRepair     = "building:repair"
	EventBuildingDestroyed  = "building:destroyed"
	EventBuildingProduction = "building:production"
	EventBuildingCollect    = "building:collect"
	EventBuildingDemolish   = "building:demolish"

	// Team tasks.
	EventTaskStart    = "task:start"
	EventTaskComplete = "task:complete"

	// Game state.
	EventGameSave      = "game:save"
	EventGameLoad      = "game:load"
	EventGamePause     = "game:pause"
	EventGameResume    = "game:resume"
	EventOfflineReward = "offline:reward"
)
