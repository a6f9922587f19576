package engine

import (
	"fmt"
	"os"

	"github.com/drummonds/goPDFView/config"
	"github.com/drummonds/goPDFView/database"
)

// StartupChecks performs all the checks to make sure everything works
func (serverHandler *ServerHandler) StartupChecks() error {
	serverConfig, err := database.FetchConfigFromDB(serverHandler.DB)
	if err != nil {
		Logger.Error("Error fetching config", "error", err)
		return err
	}
	if err := libraryDirectoryChecks(serverConfig); err != nil {
		return err
	}
	return uploadDirectoryChecks(serverConfig)
}

// libraryDirectoryChecks ensures the library directory exists
func libraryDirectoryChecks(serverConfig config.ServerConfig) error {
	if serverConfig.LibraryPath == "" {
		Logger.Warn("Library path not configured")
		return nil
	}

	libraryInfo, err := os.Stat(serverConfig.LibraryPath)
	if err != nil {
		if os.IsNotExist(err) {
			Logger.Info("Creating library directory", "path", serverConfig.LibraryPath)
			err = os.MkdirAll(serverConfig.LibraryPath, 0755)
			if err != nil {
				Logger.Error("Failed to create library directory", "path", serverConfig.LibraryPath, "error", err)
				return err
			}
			Logger.Info("Library directory created successfully", "path", serverConfig.LibraryPath)
			return nil
		}
		Logger.Error("Error checking library directory", "path", serverConfig.LibraryPath, "error", err)
		return err
	}

	if !libraryInfo.IsDir() {
		Logger.Error("Library path exists but is not a directory", "path", serverConfig.LibraryPath)
		return fmt.Errorf("library path is not a directory: %s", serverConfig.LibraryPath)
	}

	Logger.Info("Library directory exists", "path", serverConfig.LibraryPath)
	return nil
}

// uploadDirectoryChecks ensures the upload directory exists
func uploadDirectoryChecks(serverConfig config.ServerConfig) error {
	if serverConfig.UploadFolder == "" {
		Logger.Warn("Upload folder not configured")
		return nil
	}

	uploadInfo, err := os.Stat(serverConfig.UploadFolder)
	if err != nil {
		if os.IsNotExist(err) {
			Logger.Info("Creating upload directory", "path", serverConfig.UploadFolder)
			err = os.MkdirAll(serverConfig.UploadFolder, 0755)
			if err != nil {
				Logger.Error("Failed to create upload directory", "path", serverConfig.UploadFolder, "error", err)
				return err
			}
			Logger.Info("Upload directory created successfully", "path", serverConfig.UploadFolder)
			return nil
		}
		Logger.Error("Error checking upload directory", "path", serverConfig.UploadFolder, "error", err)
		return err
	}

	if !uploadInfo.IsDir() {
		Logger.Error("Upload path exists but is not a directory", "path", serverConfig.UploadFolder)
		return fmt.Errorf("upload path is not a directory: %s", serverConfig.UploadFolder)
	}

	Logger.Info("Upload directory exists", "path", serverConfig.UploadFolder)
	return nil
}
