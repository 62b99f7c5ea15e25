package app

import (
	"fmt"
	"strconv"
)

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe はAPIサーバーモードで起動することを示す。
	CommandServe Command = "serve"
	// CommandMigrate はデータベースマイグレーションを実行することを示す。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck はヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandServeを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch args[0] {
	case "serve":
		return CommandServe
	case "migrate":
		return CommandMigrate
	case "healthcheck":
		return CommandHealthcheck
	default:
		return CommandServe
	}
}

// MigrateAction はmigrateサブコマンドの動作を表す。
type MigrateAction struct {
	// Directionは"up"・"down"・"version"のいずれか。
	Direction string
	// Stepsはdownで取り消す件数。
	Steps int
}

// ParseMigrateAction はmigrate以降の引数を解析する。
// 例: ["migrate"] → up、["migrate","down","2"] → 2件取り消し、["migrate","version"] → バージョン表示。
func ParseMigrateAction(args []string) (MigrateAction, error) {
	if len(args) < 2 {
		return MigrateAction{Direction: "up"}, nil
	}
	switch args[1] {
	case "up":
		return MigrateAction{Direction: "up"}, nil
	case "version":
		return MigrateAction{Direction: "version"}, nil
	case "down":
		steps := 1
		if len(args) >= 3 {
			n, err := strconv.Atoi(args[2])
			if err != nil || n <= 0 {
				return MigrateAction{}, fmt.Errorf("invalid migrate down steps: %q", args[2])
			}
			steps = n
		}
		return MigrateAction{Direction: "down", Steps: steps}, nil
	default:
		return MigrateAction{}, fmt.Errorf("unknown migrate action: %q", args[1])
	}
}
