package server

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// GameConfig 世界规则常量，默认值即线上玩法参数
type GameConfig struct {
	TickRate             int     `json:"tickRate" mapstructure:"tickRate"`
	SnapshotRate         int     `json:"snapshotRate" mapstructure:"snapshotRate"`
	MaxPlayers           int     `json:"maxPlayers" mapstructure:"maxPlayers"`
	WorldWidth           float64 `json:"worldWidth" mapstructure:"worldWidth"`
	WorldHeight          float64 `json:"worldHeight" mapstructure:"worldHeight"`
	Thrust               float64 `json:"thrust" mapstructure:"thrust"` // units/s²
	BackwardThrustFactor float64 `json:"backwardThrustFactor" mapstructure:"backwardThrustFactor"`
	MaxSpeed             float64 `json:"maxSpeed" mapstructure:"maxSpeed"`
	Drag                 float64 `json:"drag" mapstructure:"drag"` // 每个 Tick 的速度保留比例
	FireCooldownMs       int     `json:"fireCooldownMs" mapstructure:"fireCooldownMs"`
	BulletSpeed          float64 `json:"bulletSpeed" mapstructure:"bulletSpeed"`
	BulletLife           float64 `json:"bulletLife" mapstructure:"bulletLife"` // 秒
	BulletDamage         int     `json:"bulletDamage" mapstructure:"bulletDamage"`
	MuzzleOffset         float64 `json:"muzzleOffset" mapstructure:"muzzleOffset"`
	PlayerMaxHP          int     `json:"playerMaxHp" mapstructure:"playerMaxHp"`
	CollisionRadius      float64 `json:"collisionRadius" mapstructure:"collisionRadius"`
	HitScore             int     `json:"hitScore" mapstructure:"hitScore"`
	KillScore            int     `json:"killScore" mapstructure:"killScore"`
	InputBuffer          int     `json:"inputBuffer" mapstructure:"inputBuffer"`
	SendBuffer           int     `json:"sendBuffer" mapstructure:"sendBuffer"`
}

// LogConfig 日志文件与滚动策略
type LogConfig struct {
	File       string `json:"file" mapstructure:"file"`
	Level      string `json:"level" mapstructure:"level"`
	MaxSizeMB  int    `json:"maxSizeMB" mapstructure:"maxSizeMB"`
	MaxBackups int    `json:"maxBackups" mapstructure:"maxBackups"`
	MaxAgeDays int    `json:"maxAgeDays" mapstructure:"maxAgeDays"`
	Console    bool   `json:"console" mapstructure:"console"`
}

// Config 进程级配置
type Config struct {
	Listen    string     `json:"listen" mapstructure:"listen"`
	StaticDir string     `json:"staticDir" mapstructure:"staticDir"`
	Log       LogConfig  `json:"log" mapstructure:"log"`
	Game      GameConfig `json:"game" mapstructure:"game"`
}

// DefaultGameConfig 返回默认玩法参数（20 TPS，12 人，1600×900）
func DefaultGameConfig() GameConfig {
	return GameConfig{
		TickRate:             20,
		SnapshotRate:         20,
		MaxPlayers:           12,
		WorldWidth:           1600,
		WorldHeight:          900,
		Thrust:               200,
		BackwardThrustFactor: 0.5,
		MaxSpeed:             300,
		Drag:                 0.98,
		FireCooldownMs:       250,
		BulletSpeed:          600,
		BulletLife:           2.5,
		BulletDamage:         25,
		MuzzleOffset:         20,
		PlayerMaxHP:          100,
		CollisionRadius:      20,
		HitScore:             10,
		KillScore:            50,
		InputBuffer:          256,
		SendBuffer:           64,
	}
}

// DefaultConfig 返回完整默认配置
func DefaultConfig() Config {
	return Config{
		Listen:    ":3000",
		StaticDir: "public",
		Log: LogConfig{
			File:       "arena.log",
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
		Game: DefaultGameConfig(),
	}
}

// FixedStep 物理固定步长
func (c GameConfig) FixedStep() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}

// SnapshotInterval 快照广播间隔
func (c GameConfig) SnapshotInterval() time.Duration {
	return time.Second / time.Duration(c.SnapshotRate)
}

func (c GameConfig) FireCooldown() time.Duration {
	return time.Duration(c.FireCooldownMs) * time.Millisecond
}

// Validate 拒绝会让循环或世界失效的参数
func (c GameConfig) Validate() error {
	switch {
	case c.TickRate <= 0:
		return errors.New("game.tickRate must be > 0")
	case c.SnapshotRate <= 0:
		return errors.New("game.snapshotRate must be > 0")
	case c.MaxPlayers <= 0:
		return errors.New("game.maxPlayers must be > 0")
	case c.WorldWidth <= 0 || c.WorldHeight <= 0:
		return errors.New("game world dimensions must be > 0")
	case c.MaxSpeed <= 0:
		return errors.New("game.maxSpeed must be > 0")
	case c.PlayerMaxHP <= 0:
		return errors.New("game.playerMaxHp must be > 0")
	case c.InputBuffer <= 0 || c.SendBuffer <= 0:
		return errors.New("game buffers must be > 0")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("listen", d.Listen)
	v.SetDefault("staticDir", d.StaticDir)

	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.maxSizeMB", d.Log.MaxSizeMB)
	v.SetDefault("log.maxBackups", d.Log.MaxBackups)
	v.SetDefault("log.maxAgeDays", d.Log.MaxAgeDays)
	v.SetDefault("log.console", d.Log.Console)

	g := d.Game
	v.SetDefault("game.tickRate", g.TickRate)
	v.SetDefault("game.snapshotRate", g.SnapshotRate)
	v.SetDefault("game.maxPlayers", g.MaxPlayers)
	v.SetDefault("game.worldWidth", g.WorldWidth)
	v.SetDefault("game.worldHeight", g.WorldHeight)
	v.SetDefault("game.thrust", g.Thrust)
	v.SetDefault("game.backwardThrustFactor", g.BackwardThrustFactor)
	v.SetDefault("game.maxSpeed", g.MaxSpeed)
	v.SetDefault("game.drag", g.Drag)
	v.SetDefault("game.fireCooldownMs", g.FireCooldownMs)
	v.SetDefault("game.bulletSpeed", g.BulletSpeed)
	v.SetDefault("game.bulletLife", g.BulletLife)
	v.SetDefault("game.bulletDamage", g.BulletDamage)
	v.SetDefault("game.muzzleOffset", g.MuzzleOffset)
	v.SetDefault("game.playerMaxHp", g.PlayerMaxHP)
	v.SetDefault("game.collisionRadius", g.CollisionRadius)
	v.SetDefault("game.hitScore", g.HitScore)
	v.SetDefault("game.killScore", g.KillScore)
	v.SetDefault("game.inputBuffer", g.InputBuffer)
	v.SetDefault("game.sendBuffer", g.SendBuffer)
}

// LoadConfig 读取配置：默认值 <- 配置文件（可选）<- ARENA_ 前缀环境变量
// path 为空时只使用默认值与环境变量
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("ARENA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("error decoding config: %w", err)
	}
	if err := cfg.Game.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
