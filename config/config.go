package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

var (
	BIND_ADDRESS    = "0.0.0.0:8765"
	TLS_DOMAINS     = ""   // e.g. "example.com,example2.com"
	MYSQL_DSN       = ""   // MySQL will be used if this is set
	SQLITE_FILE     = ""   // SQLite will be used if MYSQL_DSN is not configured and this is set
	DEBUG_MODE      = true // Debug level logs and gin debug mode
	LOG_FORMAT      = ""   // "json" for production encoding, console otherwise
	MAX_FRAME_BYTES = 32 << 20
	// Decoded size limit for frames and reference images, checked from the image header
	MAX_FRAME_PIXELS = 178956970
	// Reference images, one sub-directory per student. S3 is used instead of the local directory if REFERENCE_S3_BUCKET is set
	REFERENCE_DIR         = "Images"
	REFERENCE_S3_BUCKET   = ""
	REFERENCE_S3_PREFIX   = ""
	REFERENCE_S3_REGION   = "us-east-1"
	REFERENCE_S3_ENDPOINT = "" // For S3 compatible services (MinIO, etc)
	REFERENCE_S3_AUTH     = "" // "key:secret", default AWS credential chain if empty
	// Face recognition
	FACE_BACKEND         = "opencv" // "opencv" (Haar cascade + LBPH) or "dlib"
	CASCADE_FILE         = "haarcascade_frontalface_default.xml"
	DLIB_MODELS_DIR      = "models"
	DLIB_TOLERANCE       = 0.6 // Descriptor distance that maps to CONFIDENCE_THRESHOLD
	FRAME_SCALE          = 0.3 // Live frames are downscaled by this factor on both axes
	FACE_SIZE            = 100 // Faces are normalised to FACE_SIZE x FACE_SIZE before training/prediction
	CONFIDENCE_THRESHOLD = 100.0
	TRAIN_SCALE_FACTOR   = 1.2
	LIVE_SCALE_FACTOR    = 1.1
	MIN_NEIGHBORS        = 5
)

func init() {
	// Values already present in the environment win over .env
	_ = godotenv.Load()

	readEnvString("BIND_ADDRESS", &BIND_ADDRESS)
	readEnvString("TLS_DOMAINS", &TLS_DOMAINS)
	readEnvString("MYSQL_DSN", &MYSQL_DSN)
	readEnvString("SQLITE_FILE", &SQLITE_FILE)
	readEnvBool("DEBUG_MODE", &DEBUG_MODE)
	readEnvString("LOG_FORMAT", &LOG_FORMAT)
	readEnvInt("MAX_FRAME_BYTES", &MAX_FRAME_BYTES)
	readEnvInt("MAX_FRAME_PIXELS", &MAX_FRAME_PIXELS)
	readEnvString("REFERENCE_DIR", &REFERENCE_DIR)
	readEnvString("REFERENCE_S3_BUCKET", &REFERENCE_S3_BUCKET)
	readEnvString("REFERENCE_S3_PREFIX", &REFERENCE_S3_PREFIX)
	readEnvString("REFERENCE_S3_REGION", &REFERENCE_S3_REGION)
	readEnvString("REFERENCE_S3_ENDPOINT", &REFERENCE_S3_ENDPOINT)
	readEnvString("REFERENCE_S3_AUTH", &REFERENCE_S3_AUTH)
	readEnvString("FACE_BACKEND", &FACE_BACKEND)
	readEnvString("CASCADE_FILE", &CASCADE_FILE)
	readEnvString("DLIB_MODELS_DIR", &DLIB_MODELS_DIR)
	readEnvFloat("DLIB_TOLERANCE", &DLIB_TOLERANCE)
	readEnvFloat("FRAME_SCALE", &FRAME_SCALE)
	readEnvInt("FACE_SIZE", &FACE_SIZE)
	readEnvFloat("CONFIDENCE_THRESHOLD", &CONFIDENCE_THRESHOLD)
	readEnvFloat("TRAIN_SCALE_FACTOR", &TRAIN_SCALE_FACTOR)
	readEnvFloat("LIVE_SCALE_FACTOR", &LIVE_SCALE_FACTOR)
	readEnvInt("MIN_NEIGHBORS", &MIN_NEIGHBORS)
}

func readEnvString(name string, value *string) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	*value = v
}

func readEnvBool(name string, value *bool) {
	v := strings.ToLower(os.Getenv(name))
	if v == "true" || v == "1" || v == "yes" || v == "on" {
		*value = true
	} else if v == "false" || v == "0" || v == "no" || v == "off" {
		*value = false
	}
}

func readEnvFloat(name string, value *float64) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return
	}
	*value = f
}

func readEnvInt(name string, value *int) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	f, err := strconv.Atoi(v)
	if err != nil {
		return
	}
	*value = f
}
