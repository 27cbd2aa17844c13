package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v2"

	"github.com/bridge-framework/bridge-backend/pkg/apihelpers"
	"github.com/bridge-framework/bridge-backend/pkg/db"
	"github.com/bridge-framework/bridge-backend/pkg/utils"

	studyDB "github.com/bridge-framework/bridge-backend/pkg/db/study"
)

// Environment variables
const (
	ENV_CONFIG_FILE_PATH = "CONFIG_FILE_PATH"

	// Variables to override "secrets" in the config file
	ENV_STUDY_DB_USERNAME = "STUDY_DB_USERNAME"
	ENV_STUDY_DB_PASSWORD = "STUDY_DB_PASSWORD"

	ENV_PARTICIPANT_JWT_SIGN_KEY = "PARTICIPANT_JWT_SIGN_KEY"
	ENV_MANAGEMENT_API_KEY       = "MANAGEMENT_API_KEY"
)

type ParticipantApiConfig struct {
	// Logging configs
	Logging utils.LoggerConfig `json:"logging" yaml:"logging"`

	// Gin configs
	GinConfig struct {
		DebugMode    bool     `json:"debug_mode" yaml:"debug_mode"`
		AllowOrigins []string `json:"allow_origins" yaml:"allow_origins"`
		Port         string   `json:"port" yaml:"port"`

		// Mutual TLS configs
		MTLS struct {
			Use              bool                        `json:"use" yaml:"use"`
			CertificatePaths apihelpers.CertificatePaths `json:"certificate_paths" yaml:"certificate_paths"`
		} `json:"mtls" yaml:"mtls"`
	} `json:"gin_config" yaml:"gin_config"`

	ParticipantJWTConfig struct {
		SignKey   string        `json:"sign_key" yaml:"sign_key"`
		ExpiresIn time.Duration `json:"expires_in" yaml:"expires_in"`
	} `json:"participant_jwt_config" yaml:"participant_jwt_config"`

	// API keys allowed to call the management endpoints
	ManagementAPIKeys []string `json:"management_api_keys" yaml:"management_api_keys"`

	AllowedInstanceIDs []string `json:"allowed_instance_ids" yaml:"allowed_instance_ids"`
	StudyKeys          []string `json:"study_keys" yaml:"study_keys"`

	// DB configs
	DBConfigs struct {
		StudyDB db.DBConfigYaml `json:"study_db" yaml:"study_db"`
	} `json:"db_configs" yaml:"db_configs"`

	// Scheduling configs
	SchedulingConfigs struct {
		DefaultWindowDays int `json:"default_window_days" yaml:"default_window_days"`
	} `json:"scheduling_configs" yaml:"scheduling_configs"`
}

var (
	conf           ParticipantApiConfig
	studyDBService *studyDB.StudyDBService
)

func init() {
	// Read config from file
	yamlFile, err := os.ReadFile(os.Getenv(ENV_CONFIG_FILE_PATH))
	if err != nil {
		panic(err)
	}

	err = yaml.UnmarshalStrict(yamlFile, &conf)
	if err != nil {
		panic(err)
	}

	// Init logger:
	utils.InitLogger(
		conf.Logging.LogLevel,
		conf.Logging.IncludeSrc,
		conf.Logging.LogToFile,
		conf.Logging.Filename,
		conf.Logging.MaxSize,
		conf.Logging.MaxAge,
		conf.Logging.MaxBackups,
		conf.Logging.CompressOldLogs,
	)

	// Override secrets from environment variables
	secretsOverride()

	// Init DBs
	initDBs()

	if !conf.GinConfig.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	if conf.SchedulingConfigs.DefaultWindowDays < 1 {
		conf.SchedulingConfigs.DefaultWindowDays = 4
	}
}

func secretsOverride() {
	if dbUsername := os.Getenv(ENV_STUDY_DB_USERNAME); dbUsername != "" {
		conf.DBConfigs.StudyDB.Username = dbUsername
	}

	if dbPassword := os.Getenv(ENV_STUDY_DB_PASSWORD); dbPassword != "" {
		conf.DBConfigs.StudyDB.Password = dbPassword
	}

	if jwtSignKey := os.Getenv(ENV_PARTICIPANT_JWT_SIGN_KEY); jwtSignKey != "" {
		conf.ParticipantJWTConfig.SignKey = jwtSignKey
	}

	if apiKey := os.Getenv(ENV_MANAGEMENT_API_KEY); apiKey != "" {
		conf.ManagementAPIKeys = append(conf.ManagementAPIKeys, apiKey)
	}
}

func initDBs() {
	var err error
	studyDBService, err = studyDB.NewStudyDBService(db.DBConfigFromYamlObj(conf.DBConfigs.StudyDB, conf.AllowedInstanceIDs, conf.StudyKeys))
	if err != nil {
		slog.Error("Error connecting to Study DB", slog.String("error", err.Error()))
		return
	}
}
