package constants

const USER_AGENT = "censusoverlay/0.1.0 (+https://github.com/Amund211/censusoverlay)"

const CENSUS_REST_BASE_URL = "https://census.daybreakgames.com"

const CENSUS_PUSH_URL = "wss://push.planetside2.com/streaming"

// Directory name under the OS config dir holding caches and the character db
const DATA_DIR_NAME = "better-planetside-overlay-next"
