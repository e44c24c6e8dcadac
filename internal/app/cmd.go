package app

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe はAPIサーバーモードで起動することを示す。
	CommandServe Command = "serve"
	// CommandMigrate はデータベースマイグレーションを実行することを示す。
	CommandMigrate Command = "migrate"
	// CommandFetch はフィードを1回取得し、デコード結果をJSONで標準出力へ書き出す。
	CommandFetch Command = "fetch"
	// CommandHealthcheck はヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
)

// MigrateAction はmigrateサブコマンドの動作。
type MigrateAction string

const (
	MigrateUp      MigrateAction = "up"
	MigrateDown    MigrateAction = "down"
	MigrateVersion MigrateAction = "version"
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
	case "fetch":
		return CommandFetch
	case "healthcheck":
		return CommandHealthcheck
	default:
		return CommandServe
	}
}

// ParseMigrateAction は "migrate" に続く引数を解析する。省略時はup。
func ParseMigrateAction(args []string) (MigrateAction, bool) {
	if len(args) < 2 {
		return MigrateUp, true
	}
	switch MigrateAction(args[1]) {
	case MigrateUp, MigrateDown, MigrateVersion:
		return MigrateAction(args[1]), true
	default:
		return "", false
	}
}
